package handler

import (
	"net/http"

	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListNotes(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.Notes.List(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) AddNote(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.CreateNoteRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Notes.Add(c.Request.Context(), tenantID, leadID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) ListHistory(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.Notes.History(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) LogCommunication(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.AddHistoryRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Notes.LogCommunication(c.Request.Context(), tenantID, leadID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	resp, err := h.svc.Documents.List(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) PresignDocument(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.PresignDocumentRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Documents.Presign(c.Request.Context(), tenantID, leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) RegisterDocument(c *gin.Context) {
	id, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}

	var req transport.RegisterDocumentRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.svc.Documents.Register(c.Request.Context(), tenantID, leadID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) DownloadDocument(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	leadID, ok := leadParam(c)
	if !ok {
		return
	}
	documentID, ok := uuidParam(c, "documentId", "invalid document id")
	if !ok {
		return
	}

	resp, err := h.svc.Documents.Download(c.Request.Context(), tenantID, leadID, documentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
