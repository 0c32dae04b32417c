package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultmetrics/internal/apperr"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/service"
)

// defaultMaxPayload bounds POST /api/metrics bodies. Hosts send whole vaults.
const defaultMaxPayload = 64 << 20

// Handler holds API route handlers.
type Handler struct {
	svc        *service.Service
	maxPayload int64
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, maxPayload: defaultMaxPayload}
}

// notePath extracts the note path from the URL (everything after /metrics/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ComputeMetrics handles POST /api/metrics.
//
//	@Summary		Compute the snapshot of a host-supplied vault
//	@Tags			metrics
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ComputeRequest	true	"Notes and vault root"
//	@Success		200		{object}	object
//	@Failure		400		{object}	errResponse
//	@Failure		413		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/metrics [post]
func (h *Handler) ComputeMetrics(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayload)
	var req models.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	doc, err := h.svc.Compute(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperr.ErrPathOutsideVault) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		} else {
			slog.Error("compute metrics failed", slog.Int("notes", len(req.Notes)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeRaw(w, http.StatusOK, doc)
}

// VaultMetrics handles GET /api/metrics.
//
//	@Summary		Get the snapshot of the configured vault
//	@Tags			metrics
//	@Produce		json
//	@Success		200	{object}	object
//	@Security		BearerAuth
//	@Router			/metrics [get]
func (h *Handler) VaultMetrics(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Generate(r.Context())
	if err != nil {
		slog.Error("vault metrics failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeRaw(w, http.StatusOK, doc)
}

// NoteMetrics handles GET /api/metrics/notes/*.
//
//	@Summary		Get the metrics of a single note
//	@Tags			metrics
//	@Produce		json
//	@Param			path	path		string	true	"Note path relative to the vault root"
//	@Success		200		{object}	NoteMetricsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/metrics/notes/{path} [get]
func (h *Handler) NoteMetrics(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	m, err := h.svc.NoteMetrics(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("note metrics failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Duplicates handles GET /api/duplicates.
//
//	@Summary		List notes sharing a display name
//	@Tags			metrics
//	@Produce		json
//	@Success		200	{object}	DuplicatesResponse
//	@Security		BearerAuth
//	@Router			/duplicates [get]
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	dups, err := h.svc.Duplicates(r.Context())
	if err != nil {
		slog.Error("duplicates failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DuplicatesResponse{Count: len(dups), Duplicates: dups})
}
