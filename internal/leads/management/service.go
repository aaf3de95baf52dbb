// Package management handles lead creation, ownership changes and the
// read/update surface of leads.
package management

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/metrics"
	"salesflow_backend/platform/phone"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize        = 25
	defaultBulkConcurrency = 8

	MethodManual       = "manual"
	MethodClaim        = "claim"
	MethodBulkReassign = "bulk_reassign"
)

// ErrUnknownMember is returned by Members when the id is not on the roster.
var ErrUnknownMember = errors.New("unknown team member")

// Repository defines the lead persistence management needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (repository.Lead, error)
	GetForUpdate(ctx context.Context, id, organizationID uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	Update(ctx context.Context, id, organizationID uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	ClaimIfUnassigned(ctx context.Context, id, organizationID, ownerID uuid.UUID, activity string) (repository.Lead, error)
	SetOwner(ctx context.Context, id, organizationID uuid.UUID, ownerID *uuid.UUID, activity string) (repository.Lead, error)
	ListNotes(ctx context.Context, leadID, organizationID uuid.UUID) ([]repository.Note, error)
	ListHistory(ctx context.Context, leadID, organizationID uuid.UUID) ([]repository.HistoryEvent, error)
	ListDocuments(ctx context.Context, leadID, organizationID uuid.UUID) ([]repository.Document, error)
}

// Assignment is the distribution engine's decision for one lead.
type Assignment struct {
	OwnerID *uuid.UUID
	Method  string
	Reason  string
}

// Distributor picks an owner inside the caller's transaction.
type Distributor interface {
	Assign(ctx context.Context, organizationID uuid.UUID) (Assignment, error)
}

// Member is a roster entry as management sees it.
type Member struct {
	ID     uuid.UUID
	Name   string
	Active bool
	// Seller is false for roles that never work leads (Support).
	Seller bool
}

// Members resolves team members. Lookup returns ErrUnknownMember for ids
// outside the tenant's roster.
type Members interface {
	Lookup(ctx context.Context, organizationID, memberID uuid.UUID) (Member, error)
}

// DuplicateDetector runs the creation-time duplicate check.
type DuplicateDetector interface {
	Detect(ctx context.Context, organizationID, actorID uuid.UUID, email, phone *string) (conflict.Info, error)
}

// Options tunes the service.
type Options struct {
	BulkConcurrency int
	// PhoneRegion reads phone numbers without a country prefix.
	PhoneRegion     string
}

type Service struct {
	repo        Repository
	distributor Distributor
	members     Members
	conflicts   DuplicateDetector
	boards      BoardProvider
	tx          db.Transactor
	bus         events.Bus
	log         *logger.Logger
	bulkLimit   int
	phoneRegion string
}

// BoardProvider returns the tenant's stages; creation reads the intake column.
type BoardProvider interface {
	Board(ctx context.Context, organizationID uuid.UUID) (domain.Board, error)
}

func New(repo Repository, distributor Distributor, members Members, conflicts DuplicateDetector, boards BoardProvider, tx db.Transactor, bus events.Bus, log *logger.Logger, opts Options) *Service {
	limit := opts.BulkConcurrency
	if limit <= 0 {
		limit = defaultBulkConcurrency
	}
	return &Service{
		repo:        repo,
		distributor: distributor,
		members:     members,
		conflicts:   conflicts,
		boards:      boards,
		tx:          tx,
		bus:         bus,
		log:         log,
		bulkLimit:   limit,
		phoneRegion: phone.Region(opts.PhoneRegion),
	}
}

// Create registers a lead unless it duplicates an existing one. Without an
// explicit owner the distribution engine decides, in the same transaction
// as the insert.
func (s *Service) Create(ctx context.Context, organizationID, actorID uuid.UUID, req transport.CreateLeadRequest) (transport.CreateLeadResponse, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.CreateLeadResponse{}, apperr.Validation("name is required")
	}
	email := normalizeEmail(req.Email)
	phoneNumber := s.normalizePhone(req.Phone)

	info, err := s.conflicts.Detect(ctx, organizationID, actorID, email, phoneNumber)
	if err != nil {
		return transport.CreateLeadResponse{}, err
	}
	if info.Found() {
		return transport.CreateLeadResponse{Conflict: toConflictResponse(info)}, nil
	}

	if req.Owner.Set && req.Owner.Value != nil {
		if err := s.requireAssignable(ctx, organizationID, *req.Owner.Value); err != nil {
			return transport.CreateLeadResponse{}, err
		}
	}

	board, err := s.boards.Board(ctx, organizationID)
	if err != nil {
		return transport.CreateLeadResponse{}, apperr.Persistence("load pipeline", err)
	}
	intake := board.Intake()

	source := req.Source
	if source == "" {
		source = repository.SourceManual
	}

	var (
		lead   repository.Lead
		method = MethodManual
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		owner := req.Owner.Value
		if !req.Owner.Set {
			decision, err := s.distributor.Assign(ctx, organizationID)
			if err != nil {
				return apperr.Persistence("assign lead", err)
			}
			owner, method = decision.OwnerID, decision.Method
		}

		created, err := s.repo.Create(ctx, repository.CreateLeadParams{
			ID:               uuid.New(),
			OrganizationID:   organizationID,
			Name:             name,
			Company:          sanitize.Text(req.Company),
			Email:            email,
			Phone:            phoneNumber,
			Value:            req.Value,
			Stage:            intake.Key,
			OwnerID:          owner,
			Probability:      intake.Probability,
			Source:           source,
			Tags:             sanitize.StringSet(req.Tags),
			ProductInterests: sanitize.StringSet(req.ProductInterests),
			BANT:             toBANT(req.BANT),
			LastActivity:     "Lead created",
		})
		if err != nil {
			return apperr.Persistence("create lead", err)
		}
		lead = created
		return nil
	})
	if err != nil {
		return transport.CreateLeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  organizationID,
		OwnerID:   lead.OwnerID,
		Stage:     lead.Stage,
		Source:    lead.Source,
		Name:      lead.Name,
		Company:   lead.Company,
		Email:     deref(lead.Email),
		Phone:     deref(lead.Phone),
		Value:     lead.Value,
	})
	if lead.OwnerID != nil {
		s.publishAssigned(ctx, lead, nil, &actorID, method)
	}
	s.log.WithContext(ctx).DomainEvent("lead_created",
		"lead_id", lead.ID.String(),
		"owner", ownerLabel(lead.OwnerID),
		"method", method,
	)

	created := ToLeadResponse(lead)
	return transport.CreateLeadResponse{Created: &created}, nil
}

// Claim makes the actor the owner of an unassigned lead.
func (s *Service) Claim(ctx context.Context, organizationID, actorID, leadID uuid.UUID) (transport.LeadResponse, error) {
	if err := s.requireClaimant(ctx, organizationID, actorID); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.ClaimIfUnassigned(ctx, leadID, organizationID, actorID, "Claimed")
	switch {
	case errors.Is(err, repository.ErrAlreadyClaimed):
		metrics.RecordClaim("already_claimed")
		return transport.LeadResponse{}, apperr.Conflict("lead already claimed")
	case errors.Is(err, repository.ErrNotFound):
		return transport.LeadResponse{}, apperr.NotFound("lead not found")
	case err != nil:
		return transport.LeadResponse{}, apperr.Persistence("claim lead", err)
	}

	metrics.RecordClaim("claimed")
	s.bus.Publish(ctx, events.LeadClaimed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  organizationID,
		ClaimedBy: actorID,
	})
	return ToLeadResponse(lead), nil
}

// BulkReassign moves each lead to target independently. The target is
// checked once; per-lead failures are collected and never roll back the
// leads that succeeded.
func (s *Service) BulkReassign(ctx context.Context, organizationID, actorID uuid.UUID, req transport.BulkReassignRequest) (transport.BulkReassignResponse, error) {
	if !req.Target.Set {
		return transport.BulkReassignResponse{}, apperr.Validation(`target must be a team member id or "Unassigned"`)
	}
	target := req.Target.Value
	if target != nil {
		if err := s.requireAssignable(ctx, organizationID, *target); err != nil {
			return transport.BulkReassignResponse{}, err
		}
	}

	ids := uniqueIDs(req.LeadIDs)
	failures := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(s.bulkLimit)
	for i, id := range ids {
		g.Go(func() error {
			failures[i] = s.reassignOne(ctx, organizationID, actorID, id, target)
			return nil
		})
	}
	_ = g.Wait()

	resp := transport.BulkReassignResponse{Succeeded: []uuid.UUID{}, Failed: []transport.BulkFailure{}}
	for i, id := range ids {
		if failures[i] == nil {
			resp.Succeeded = append(resp.Succeeded, id)
			continue
		}
		metrics.RecordBulkReassignFailure()
		resp.Failed = append(resp.Failed, transport.BulkFailure{ID: id, Error: failureMessage(failures[i])})
	}

	s.log.WithContext(ctx).DomainEvent("leads_bulk_reassigned",
		"target", ownerLabel(target),
		"succeeded", len(resp.Succeeded),
		"failed", len(resp.Failed),
	)
	return resp, nil
}

func (s *Service) reassignOne(ctx context.Context, organizationID, actorID, leadID uuid.UUID, target *uuid.UUID) error {
	var (
		previous *uuid.UUID
		lead     repository.Lead
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, leadID, organizationID)
		if err != nil {
			return err
		}
		previous = current.OwnerID
		lead, err = s.repo.SetOwner(ctx, leadID, organizationID, target, reassignActivity(target))
		return err
	})
	if err != nil {
		s.log.WithContext(ctx).Warn("bulk reassign failed", "lead_id", leadID.String(), "error", err.Error())
		return err
	}
	if !sameOwner(previous, target) {
		s.publishAssigned(ctx, lead, previous, &actorID, MethodBulkReassign)
	}
	return nil
}

// Release drops the current owner and routes the lead through the
// distribution engine again.
func (s *Service) Release(ctx context.Context, organizationID, actorID, leadID uuid.UUID) (transport.LeadResponse, error) {
	var (
		previous *uuid.UUID
		lead     repository.Lead
		decision Assignment
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, leadID, organizationID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return apperr.Persistence("load lead", err)
		}
		previous = current.OwnerID

		decision, err = s.distributor.Assign(ctx, organizationID)
		if err != nil {
			return apperr.Persistence("assign lead", err)
		}
		lead, err = s.repo.SetOwner(ctx, leadID, organizationID, decision.OwnerID, reassignActivity(decision.OwnerID))
		if err != nil {
			return apperr.Persistence("release lead", err)
		}
		return nil
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if !sameOwner(previous, lead.OwnerID) {
		s.publishAssigned(ctx, lead, previous, &actorID, decision.Method)
	}
	return ToLeadResponse(lead), nil
}

// Get returns a lead with its notes, history and documents.
func (s *Service) Get(ctx context.Context, organizationID, leadID uuid.UUID) (transport.LeadDetailResponse, error) {
	lead, err := s.repo.GetByID(ctx, leadID, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadDetailResponse{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return transport.LeadDetailResponse{}, apperr.Persistence("load lead", err)
	}

	notes, err := s.repo.ListNotes(ctx, leadID, organizationID)
	if err != nil {
		return transport.LeadDetailResponse{}, apperr.Persistence("list notes", err)
	}
	history, err := s.repo.ListHistory(ctx, leadID, organizationID)
	if err != nil {
		return transport.LeadDetailResponse{}, apperr.Persistence("list history", err)
	}
	docs, err := s.repo.ListDocuments(ctx, leadID, organizationID)
	if err != nil {
		return transport.LeadDetailResponse{}, apperr.Persistence("list documents", err)
	}

	return ToLeadDetailResponse(lead, notes, history, docs), nil
}

// List returns a page of leads. Owner accepts a member id, "Unassigned"
// or "me".
func (s *Service) List(ctx context.Context, organizationID, actorID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page, size := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}

	params := repository.ListParams{
		OrganizationID: organizationID,
		Stage:          req.Stage,
		Source:         req.Source,
		Search:         req.Search,
		Tag:            req.Tag,
		Limit:          size,
		Offset:         (page - 1) * size,
	}
	switch owner := strings.TrimSpace(req.Owner); {
	case owner == "":
	case strings.EqualFold(owner, "me"):
		params.OwnerID = &actorID
	default:
		ref, err := transport.ParseOwnerRef(owner)
		if err != nil {
			return transport.LeadListResponse{}, apperr.BadRequest(err.Error())
		}
		params.OwnerID = ref.Value
		params.Unassigned = ref.Value == nil
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, apperr.Persistence("list leads", err)
	}
	items := make([]transport.LeadResponse, 0, len(leads))
	for _, l := range leads {
		items = append(items, ToLeadResponse(l))
	}
	return transport.LeadListResponse{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// Update edits lead details. Stage and owner have their own operations.
func (s *Service) Update(ctx context.Context, organizationID, leadID uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateLeadParams{
		Value:       req.Value,
		Source:      req.Source,
		Probability: req.Probability,
	}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return transport.LeadResponse{}, apperr.Validation("name cannot be empty")
		}
		params.Name = &name
	}
	params.Company = sanitize.TextPtr(req.Company)
	if req.Email != nil {
		params.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		params.Phone = s.normalizePhone(*req.Phone)
	}
	if req.Tags != nil {
		tags := sanitize.StringSet(*req.Tags)
		params.Tags = &tags
	}
	if req.ProductInterests != nil {
		interests := sanitize.StringSet(*req.ProductInterests)
		params.ProductInterests = &interests
	}
	params.BANT = toBANT(req.BANT)
	activity := "Details updated"
	params.LastActivity = &activity

	lead, err := s.repo.Update(ctx, leadID, organizationID, params)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return transport.LeadResponse{}, apperr.Persistence("update lead", err)
	}
	return ToLeadResponse(lead), nil
}

func (s *Service) requireAssignable(ctx context.Context, organizationID, memberID uuid.UUID) error {
	member, err := s.members.Lookup(ctx, organizationID, memberID)
	if errors.Is(err, ErrUnknownMember) {
		return apperr.Validation("owner is not a member of this organization")
	}
	if err != nil {
		return apperr.Persistence("load team member", err)
	}
	if !member.Active {
		return apperr.Validation(fmt.Sprintf("%s is inactive and cannot own leads", member.Name))
	}
	return nil
}

func (s *Service) requireClaimant(ctx context.Context, organizationID, actorID uuid.UUID) error {
	member, err := s.members.Lookup(ctx, organizationID, actorID)
	if errors.Is(err, ErrUnknownMember) {
		return apperr.Forbidden("only team members can claim leads")
	}
	if err != nil {
		return apperr.Persistence("load team member", err)
	}
	if !member.Active || !member.Seller {
		metrics.RecordClaim("not_eligible")
		return apperr.Forbidden(fmt.Sprintf("%s cannot claim leads", member.Name))
	}
	return nil
}

func (s *Service) publishAssigned(ctx context.Context, lead repository.Lead, previous, by *uuid.UUID, method string) {
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		TenantID:        lead.OrganizationID,
		LeadName:        lead.Name,
		PreviousOwnerID: previous,
		NewOwnerID:      lead.OwnerID,
		AssignedByID:    by,
		Method:          method,
	})
}

func normalizeEmail(raw string) *string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return nil
	}
	return &email
}

func (s *Service) normalizePhone(raw string) *string {
	number := phone.NormalizeE164(raw, s.phoneRegion)
	if number == "" {
		return nil
	}
	return &number
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func failureMessage(err error) string {
	if errors.Is(err, repository.ErrNotFound) {
		return "not found"
	}
	return "temporarily unavailable"
}

func reassignActivity(owner *uuid.UUID) string {
	if owner == nil {
		return "Moved to Unassigned"
	}
	return "Owner changed"
}

func sameOwner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ownerLabel(id *uuid.UUID) string {
	if id == nil {
		return transport.Unassigned
	}
	return id.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
