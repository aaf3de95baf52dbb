package handler

import (
	"net/http"

	"salesflow_backend/internal/pipeline/repository"
	"salesflow_backend/internal/pipeline/service"
	"salesflow_backend/internal/pipeline/transport"
	"salesflow_backend/platform/httpkit"
	"salesflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts read routes on rg and the replace route on manager.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, manager *gin.RouterGroup) {
	rg.GET("/columns", h.ListColumns)
	rg.GET("/forecast", h.Forecast)
	manager.PUT("/columns", h.ReplaceColumns)
}

func (h *Handler) ListColumns(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	columns, err := h.svc.Columns(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toColumnsResponse(columns))
}

func (h *Handler) ReplaceColumns(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.ReplaceColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	columns, err := h.svc.Replace(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toColumnsResponse(columns))
}

func (h *Handler) Forecast(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	forecast, err := h.svc.Forecast(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, forecast)
}

func toColumnsResponse(columns []repository.Column) transport.ColumnsResponse {
	resp := transport.ColumnsResponse{Columns: make([]transport.ColumnResponse, 0, len(columns))}
	for _, col := range columns {
		resp.Columns = append(resp.Columns, transport.ColumnResponse{
			Key:         col.Key,
			Title:       col.Title,
			Color:       col.Color,
			Probability: col.Probability,
			Position:    col.Position,
			Terminal:    service.IsTerminal(col.Key),
		})
	}
	return resp
}
