package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sagarc03/datashare"
)

type uploadRequest struct {
	Filename       string `json:"filename" validate:"required,max=255"`
	ContentType    string `json:"contentType" validate:"max=255"`
	Size           int64  `json:"size" validate:"gte=0"`
	ExpirationDays *int   `json:"expirationDays" validate:"omitempty,min=1,max=365"`
}

type fileItem struct {
	Token       string    `json:"token"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type fileListResponse struct {
	Items      []fileItem `json:"items"`
	NextCursor string     `json:"next_cursor"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	h.upload(w, r, uuid.NullUUID{UUID: p.ID, Valid: true})
}

func (h *Handler) handlePublicUpload(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, uuid.NullUUID{})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, owner uuid.NullUUID) {
	var req uploadRequest
	fields, err := h.decodeAndValidate(w, r, &req)
	if err != nil {
		HandleError(w, err)
		return
	}

	if fields != nil {
		WriteValidationError(w, fields)
		return
	}

	res, err := h.files.CreateUpload(r.Context(), datashare.UploadRequest{
		Filename:       req.Filename,
		ContentType:    req.ContentType,
		Size:           req.Size,
		ExpirationDays: req.ExpirationDays,
	}, owner)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	res, err := h.files.CreateDownload(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	cursor := r.URL.Query().Get("cursor")

	limit := 100
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(1000, parsed))
		}
	}

	result, err := h.files.ListOwned(r.Context(), principal(r), datashare.ListQuery{Limit: limit, Cursor: cursor})
	if err != nil {
		HandleError(w, err)
		return
	}

	resp := fileListResponse{Items: make([]fileItem, 0, len(result.Items)), NextCursor: result.NextCursor}
	for _, f := range result.Items {
		resp.Items = append(resp.Items, fileItem{
			Token:       f.Token.Token,
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Size:        f.Size,
			CreatedAt:   f.CreatedAt,
			ExpiresAt:   f.Token.ExpiresAt,
		})
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.files.DeleteOwned(r.Context(), principal(r), chi.URLParam(r, "token")); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
