package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/engine/aggregate"
	"github.com/unifin/unifin/internal/platform/snapshot"
	"github.com/unifin/unifin/internal/transport/httpapi/middleware"
)

// SnapshotService defines the snapshot operations needed by SnapshotHandler
type SnapshotService interface {
	Build(ctx context.Context, userID uuid.UUID, opts aggregate.Options) (*snapshot.Overview, error)
}

// SnapshotHandler handles snapshot and spending HTTP requests
type SnapshotHandler struct {
	service SnapshotService
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(service SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// SpendingResponse is the spending-only view of an overview
type SpendingResponse struct {
	GeneratedAt        time.Time                 `json:"generated_at"`
	Granularity        string                    `json:"granularity"`
	Summary            aggregate.SpendingSummary `json:"summary"`
	Trend              []aggregate.TrendBucket   `json:"trend"`
	UnavailableSources []snapshot.SourceFailure  `json:"unavailable_sources,omitempty"`
}

// GetSnapshot handles GET /snapshot?granularity=&tz=
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	overview, ok := h.build(w, r)
	if !ok {
		return
	}

	respondJSON(w, overview, http.StatusOK)
}

// GetSpending handles GET /spending?granularity=&tz=
func (h *SnapshotHandler) GetSpending(w http.ResponseWriter, r *http.Request) {
	overview, ok := h.build(w, r)
	if !ok {
		return
	}

	resp := SpendingResponse{
		GeneratedAt:        overview.GeneratedAt,
		Granularity:        overview.Granularity,
		UnavailableSources: overview.UnavailableSources,
	}
	if overview.Snapshot != nil {
		resp.Summary = overview.Snapshot.Spending
		resp.Trend = overview.Snapshot.Trend
	}

	respondJSON(w, resp, http.StatusOK)
}

func (h *SnapshotHandler) build(w http.ResponseWriter, r *http.Request) (*snapshot.Overview, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	granularity, err := aggregate.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	opts := aggregate.Options{Granularity: granularity}

	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			respondError(w, "invalid tz parameter", http.StatusBadRequest)
			return nil, false
		}
		opts.Location = loc
	}

	overview, err := h.service.Build(r.Context(), userID, opts)
	if err != nil {
		respondError(w, "failed to build snapshot", http.StatusInternalServerError)
		return nil, false
	}

	return overview, true
}
