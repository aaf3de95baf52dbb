package handler

import (
	"net/http"

	"salesflow_backend/internal/tasks/service"
	"salesflow_backend/internal/tasks/transport"
	"salesflow_backend/platform/httpkit"
	"salesflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	managerRole         = "manager"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListMine)
	rg.POST("", h.Create)
	rg.POST("/:id/complete", h.Complete)
}

func (h *Handler) ListMine(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	resp, err := h.svc.ListMine(c.Request.Context(), tenantID, id.UserID(), c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Create(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) Complete(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.Complete(c.Request.Context(), tenantID, taskID, id.UserID(), id.HasRole(managerRole))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
