package handler

import (
	"net/http"
	"strconv"

	"salesflow_backend/internal/notification/inapp"
	"salesflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HTTPHandler struct {
	svc *inapp.Service
}

func NewHTTPHandler(svc *inapp.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
}

func (h *HTTPHandler) List(c *gin.Context) {
	identity, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.List(c.Request.Context(), tenantID, identity.UserID(), page, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	identity, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), tenantID, identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	identity, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	if err := h.svc.MarkAllRead(c.Request.Context(), tenantID, identity.UserID()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}
