package api

import (
	"github.com/starford/vaultmetrics/internal/metrics"
	"github.com/starford/vaultmetrics/internal/models"
)

// ComputeRequest is the host payload accepted by POST /api/metrics.
type ComputeRequest = models.Request

// NoteMetricsResponse is the per-note record (aliased from the domain layer).
type NoteMetricsResponse = metrics.NoteMetrics

// DuplicatesResponse lists notes sharing a display name.
type DuplicatesResponse struct {
	Count      int                 `json:"count" example:"1" validate:"required"`
	Duplicates map[string][]string `json:"duplicates" validate:"required"`
}
