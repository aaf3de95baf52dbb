package handler

import (
	"net/http"

	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/documents"
	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/lifecycle"
	"salesflow_backend/internal/leads/management"
	"salesflow_backend/internal/leads/notes"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/httpkit"
	"salesflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Services bundles the lead services the handler dispatches to.
type Services struct {
	Management *management.Service
	Lifecycle  *lifecycle.Service
	Conflicts  *conflict.Resolver
	Notes      *notes.Service
	Documents  *documents.Service
}

type Handler struct {
	svc Services
	val *validator.Validator
}

func New(svc Services, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts lead routes. Reassignment and release live on manager.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, manager *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.POST("/:id/stage", h.MoveStage)
	rg.POST("/:id/claim", h.Claim)
	rg.POST("/:id/conflicts", h.ResolveConflict)

	rg.GET("/:id/notes", h.ListNotes)
	rg.POST("/:id/notes", h.AddNote)
	rg.GET("/:id/history", h.ListHistory)
	rg.POST("/:id/history", h.LogCommunication)

	rg.GET("/:id/documents", h.ListDocuments)
	rg.POST("/:id/documents/presign", h.PresignDocument)
	rg.POST("/:id/documents", h.RegisterDocument)
	rg.GET("/:id/documents/:documentId/download", h.DownloadDocument)

	manager.POST("/bulk-reassign", h.BulkReassign)
	manager.POST("/:id/release", h.Release)
}

func (h *Handler) Create(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Management.Create(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	if resp.Conflict != nil {
		httpkit.JSON(c, http.StatusConflict, resp)
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) List(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Management.List(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Get(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.Management.Get(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Update(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Management.Update(c.Request.Context(), tenantID, leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) MoveStage(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.MoveStageRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.Lifecycle.MoveStage(c.Request.Context(), tenantID, id.UserID(), leadID, toTransitionRequest(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, management.ToLeadResponse(lead))
}

func (h *Handler) Claim(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.Management.Claim(c.Request.Context(), tenantID, id.UserID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ResolveConflict(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.ResolveConflictRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Conflicts.Escalate(c.Request.Context(), tenantID, leadID, id.UserID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ResolveConflictResponse{
		NoteCreated: true,
		TaskCreated: true,
		NoteID:      result.NoteID,
		TaskID:      result.TaskID,
	})
}

func (h *Handler) BulkReassign(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.BulkReassignRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Management.BulkReassign(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Release(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.Management.Release(c.Request.Context(), tenantID, id.UserID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func leadParam(c *gin.Context) (uuid.UUID, bool) {
	return uuidParam(c, "id", msgInvalidLeadID)
}

func uuidParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, message, nil)
		return uuid.Nil, false
	}
	return id, true
}

func toTransitionRequest(req transport.MoveStageRequest) domain.TransitionRequest {
	out := domain.TransitionRequest{Target: req.Stage}
	if req.Won != nil {
		out.Won = &domain.WonInput{
			Products:     req.Won.Products,
			FinalPrice:   req.Won.FinalPrice,
			ClosingNotes: req.Won.ClosingNotes,
		}
	}
	if req.Lost != nil {
		out.Lost = &domain.LostInput{Reason: req.Lost.Reason, Detail: req.Lost.Detail}
	}
	return out
}
