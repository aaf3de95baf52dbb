package adapters

import (
	"context"

	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/management"
	pipelinerepo "salesflow_backend/internal/pipeline/repository"

	"github.com/google/uuid"
)

// ColumnReader returns a tenant's configured columns in board order.
type ColumnReader interface {
	Columns(ctx context.Context, organizationID uuid.UUID) ([]pipelinerepo.Column, error)
}

// PipelineBoard turns pipeline configuration into the state machine's board.
type PipelineBoard struct {
	pipeline ColumnReader
}

func NewPipelineBoard(pipeline ColumnReader) *PipelineBoard {
	return &PipelineBoard{pipeline: pipeline}
}

func (a *PipelineBoard) Board(ctx context.Context, organizationID uuid.UUID) (domain.Board, error) {
	columns, err := a.pipeline.Columns(ctx, organizationID)
	if err != nil {
		return domain.Board{}, err
	}
	out := make([]domain.Column, 0, len(columns))
	for _, c := range columns {
		out = append(out, domain.Column{Key: c.Key, Title: c.Title, Probability: c.Probability})
	}
	return domain.NewBoard(out), nil
}

var _ management.BoardProvider = (*PipelineBoard)(nil)
