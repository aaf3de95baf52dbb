package handler

import (
	"net/http"

	"salesflow_backend/internal/distribution/engine"
	"salesflow_backend/internal/distribution/transport"
	"salesflow_backend/platform/httpkit"
	"salesflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *engine.Service
	val *validator.Validator
}

func New(svc *engine.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, manager *gin.RouterGroup) {
	rg.GET("/settings", h.GetSettings)
	manager.PUT("/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Settings(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.UpdateSettings(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
