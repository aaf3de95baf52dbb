// Package service implements the pipeline configuration store: ordered
// columns per tenant, defaults, validation of replacements and the
// value forecast over them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/pipeline/repository"
	"salesflow_backend/internal/pipeline/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/cache"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	cacheKeyPrefix = "pipeline:columns:"
	defaultColor   = "#64748b"
)

var (
	keyPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,39}$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Repository is the persistence needed by the store.
type Repository interface {
	ListColumns(ctx context.Context, organizationID uuid.UUID) ([]repository.Column, error)
	ReplaceColumns(ctx context.Context, organizationID uuid.UUID, columns []repository.Column) error
}

// ColumnCache is satisfied by *cache.Cache.
type ColumnCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// StageTotal aggregates the non-deleted leads sitting in one stage.
type StageTotal struct {
	Stage string
	Count int
	Value float64
}

// StageStats reports lead counts and values per stage.
type StageStats interface {
	StageTotals(ctx context.Context, organizationID uuid.UUID) ([]StageTotal, error)
}

type Service struct {
	repo  Repository
	stats StageStats
	cache ColumnCache
	tx    db.Transactor
	bus   events.Bus
	ttl   time.Duration
	log   *logger.Logger
}

// Options carries the optional collaborators; nil Cache disables caching.
type Options struct {
	Cache ColumnCache
	TTL   time.Duration
}

func New(repo Repository, stats StageStats, tx db.Transactor, bus events.Bus, log *logger.Logger, opts Options) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:  repo,
		stats: stats,
		cache: opts.Cache,
		tx:    tx,
		bus:   bus,
		ttl:   ttl,
		log:   log,
	}
}

// Columns returns the tenant's ordered columns: intake first, active stages,
// then Won and Lost.
func (s *Service) Columns(ctx context.Context, organizationID uuid.UUID) ([]repository.Column, error) {
	key := cacheKeyPrefix + organizationID.String()

	if s.cache != nil {
		var cached []repository.Column
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("pipeline cache read failed", slog.String("error", err.Error()))
		}
	}

	stored, err := s.repo.ListColumns(ctx, organizationID)
	if err != nil {
		return nil, apperr.Persistence("load pipeline columns", err)
	}
	if len(stored) == 0 {
		stored, err = DefaultColumns()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "default pipeline unavailable", err)
		}
	}
	columns := normalize(stored)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, columns, s.ttl); err != nil {
			s.log.Warn("pipeline cache write failed", slog.String("error", err.Error()))
		}
	}
	return columns, nil
}

// Replace validates and stores a new column set. Stage keys that are still
// referenced by leads cannot be removed.
func (s *Service) Replace(ctx context.Context, organizationID, actorID uuid.UUID, req transport.ReplaceColumnsRequest) ([]repository.Column, error) {
	proposed, err := validateColumns(req.Columns)
	if err != nil {
		return nil, err
	}
	next := normalize(proposed)

	current, err := s.Columns(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRemovable(ctx, organizationID, current, next); err != nil {
		return nil, err
	}

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.ReplaceColumns(ctx, organizationID, next)
	}); err != nil {
		return nil, apperr.Persistence("store pipeline columns", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKeyPrefix+organizationID.String()); err != nil {
			s.log.Warn("pipeline cache invalidation failed", slog.String("error", err.Error()))
		}
	}

	keys := make([]string, 0, len(next))
	for _, col := range next {
		keys = append(keys, col.Key)
	}
	s.bus.Publish(ctx, events.PipelineConfigured{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  organizationID,
		ActorID:   actorID,
		StageKeys: keys,
	})

	return next, nil
}

func (s *Service) ensureRemovable(ctx context.Context, organizationID uuid.UUID, current, next []repository.Column) error {
	kept := make(map[string]struct{}, len(next))
	for _, col := range next {
		kept[col.Key] = struct{}{}
	}

	removed := make(map[string]struct{})
	for _, col := range current {
		if _, ok := kept[col.Key]; !ok {
			removed[col.Key] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return nil
	}

	totals, err := s.stats.StageTotals(ctx, organizationID)
	if err != nil {
		return apperr.Persistence("count leads per stage", err)
	}

	inUse := make([]transport.StageInUse, 0)
	for _, total := range totals {
		if _, ok := removed[total.Stage]; ok && total.Count > 0 {
			inUse = append(inUse, transport.StageInUse{Key: total.Stage, Count: total.Count})
		}
	}
	if len(inUse) > 0 {
		return apperr.Conflict("stages still contain leads").WithDetails(inUse)
	}
	return nil
}

// Forecast sums lead values per column and weights them by the column's
// configured probability.
func (s *Service) Forecast(ctx context.Context, organizationID uuid.UUID) (transport.ForecastResponse, error) {
	columns, err := s.Columns(ctx, organizationID)
	if err != nil {
		return transport.ForecastResponse{}, err
	}
	totals, err := s.stats.StageTotals(ctx, organizationID)
	if err != nil {
		return transport.ForecastResponse{}, apperr.Persistence("load stage totals", err)
	}

	byStage := make(map[string]StageTotal, len(totals))
	for _, t := range totals {
		byStage[t.Stage] = t
	}

	resp := transport.ForecastResponse{Columns: make([]transport.ForecastColumn, 0, len(columns))}
	for _, col := range columns {
		t := byStage[col.Key]
		weighted := roundCents(t.Value * float64(col.Probability) / 100)
		resp.Columns = append(resp.Columns, transport.ForecastColumn{
			Key:           col.Key,
			Title:         col.Title,
			Probability:   col.Probability,
			Count:         t.Count,
			TotalValue:    roundCents(t.Value),
			WeightedValue: weighted,
		})
		resp.TotalCount += t.Count
		resp.TotalValue += t.Value
		resp.WeightedValue += weighted
		if !IsTerminal(col.Key) {
			resp.OpenValue += t.Value
		}
	}
	resp.TotalValue = roundCents(resp.TotalValue)
	resp.OpenValue = roundCents(resp.OpenValue)
	resp.WeightedValue = roundCents(resp.WeightedValue)
	return resp, nil
}

func validateColumns(inputs []transport.ColumnInput) ([]repository.Column, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("at least one column is required")
	}

	seen := make(map[string]struct{}, len(inputs))
	columns := make([]repository.Column, 0, len(inputs))
	for i, in := range inputs {
		key := strings.TrimSpace(in.Key)
		if !keyPattern.MatchString(key) {
			return nil, apperr.Validation(fmt.Sprintf("column %d: invalid key %q", i, in.Key))
		}
		folded := strings.ToLower(key)
		if _, dup := seen[folded]; dup {
			return nil, apperr.Validation(fmt.Sprintf("duplicate column key %q", key))
		}
		seen[folded] = struct{}{}
		if (folded == "won" && key != WonKey) || (folded == "lost" && key != LostKey) || (folded == IntakeKey && key != IntakeKey) {
			return nil, apperr.Validation(fmt.Sprintf("column key %q collides with a reserved stage", key))
		}

		title := sanitize.Text(in.Title)
		if title == "" {
			return nil, apperr.Validation(fmt.Sprintf("column %q: title is required", key))
		}

		color := strings.TrimSpace(in.Color)
		if color == "" {
			color = defaultColor
		}
		if !colorPattern.MatchString(color) {
			return nil, apperr.Validation(fmt.Sprintf("column %q: color must be #rrggbb", key))
		}

		if in.Probability == nil || *in.Probability < 0 || *in.Probability > 100 {
			return nil, apperr.Validation(fmt.Sprintf("column %q: probability must be between 0 and 100", key))
		}

		columns = append(columns, repository.Column{
			Key:         key,
			Title:       title,
			Color:       color,
			Probability: *in.Probability,
			Position:    i,
		})
	}
	return columns, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
