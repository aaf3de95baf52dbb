package inapp

import (
	"context"
	"errors"
	"log/slog"

	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Store is the persistence behind the in-app inbox.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, organizationID, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, organizationID, userID uuid.UUID) error
}

type Service struct {
	repo Store
	log  *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SendParams describes one notification for one recipient. ID is assigned
// when the notification is built so a redelivered job stores it once.
type SendParams struct {
	ID     uuid.UUID  `json:"id"`
	OrgID  uuid.UUID  `json:"organizationId"`
	UserID uuid.UUID  `json:"userId"`
	Kind   string     `json:"kind"`
	Title  string     `json:"title"`
	Body   string     `json:"body"`
	LeadID *uuid.UUID `json:"leadId,omitempty"`
}

// Send persists the notification in the recipient's inbox.
func (s *Service) Send(ctx context.Context, p SendParams) (Notification, error) {
	if p.OrgID == uuid.Nil || p.UserID == uuid.Nil {
		return Notification{}, apperr.Validation("organization and recipient are required")
	}
	title := sanitize.Text(p.Title)
	if title == "" {
		return Notification{}, apperr.Validation("title is required")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	n, err := s.repo.Create(ctx, CreateParams{
		ID:             p.ID,
		OrganizationID: p.OrgID,
		UserID:         p.UserID,
		Kind:           p.Kind,
		Title:          title,
		Body:           sanitize.Text(p.Body),
		LeadID:         p.LeadID,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("failed to persist in-app notification",
			slog.String("user_id", p.UserID.String()),
			slog.String("error", err.Error()),
		)
		return Notification{}, apperr.Persistence("store notification", err)
	}
	return n, nil
}

// Page is one page of a user's inbox.
type Page struct {
	Items  []Notification `json:"items"`
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
	Page   int            `json:"page"`
}

func (s *Service) List(ctx context.Context, organizationID, userID uuid.UUID, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	items, total, err := s.repo.List(ctx, organizationID, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, apperr.Persistence("list notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, organizationID, userID)
	if err != nil {
		return Page{}, apperr.Persistence("count unread notifications", err)
	}
	return Page{Items: items, Total: total, Unread: unread, Page: page}, nil
}

func (s *Service) MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, organizationID, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	return apperr.Persistence("mark notification read", err)
}

func (s *Service) MarkAllRead(ctx context.Context, organizationID, userID uuid.UUID) error {
	return apperr.Persistence("mark notifications read", s.repo.MarkAllRead(ctx, organizationID, userID))
}
