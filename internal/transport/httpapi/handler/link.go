package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/platform/link"
	"github.com/unifin/unifin/internal/transport/httpapi/middleware"
)

// LinkService defines the link operations needed by LinkHandler
type LinkService interface {
	Create(ctx context.Context, l *link.Link) (*link.Link, error)
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*link.Link, error)
	List(ctx context.Context, userID uuid.UUID) ([]*link.Link, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// LinkHandler handles source link HTTP requests
type LinkHandler struct {
	service LinkService
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(service LinkService) *LinkHandler {
	return &LinkHandler{service: service}
}

// CreateLinkRequest represents the link creation request body.
// Source is only meaningful for wallet links, where it names the chain.
type CreateLinkRequest struct {
	Type        string `json:"type"`
	Source      string `json:"source,omitempty"`
	Name        string `json:"name"`
	ExternalRef string `json:"external_ref"`
}

// LinkResponse represents a link in API responses. Bank and broker external
// references are secrets and never echoed back.
type LinkResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	Name        string    `json:"name"`
	ExternalRef string    `json:"external_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateLink handles POST /links
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	l := &link.Link{
		UserID:      userID,
		Type:        link.Type(req.Type),
		Source:      record.Source(req.Source),
		Name:        req.Name,
		ExternalRef: req.ExternalRef,
	}

	created, err := h.service.Create(r.Context(), l)
	if err != nil {
		respondLinkError(w, err)
		return
	}

	respondJSON(w, toLinkResponse(created), http.StatusCreated)
}

// GetLinks handles GET /links
func (h *LinkHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	links, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to list links", http.StatusInternalServerError)
		return
	}

	resp := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, toLinkResponse(l))
	}

	respondJSON(w, resp, http.StatusOK)
}

// GetLink handles GET /links/{id}
func (h *LinkHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid link ID", http.StatusBadRequest)
		return
	}

	l, err := h.service.GetByID(r.Context(), id, userID)
	if err != nil {
		respondLinkError(w, err)
		return
	}

	respondJSON(w, toLinkResponse(l), http.StatusOK)
}

// DeleteLink handles DELETE /links/{id}
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid link ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		respondLinkError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toLinkResponse(l *link.Link) LinkResponse {
	resp := LinkResponse{
		ID:        l.ID.String(),
		Type:      string(l.Type),
		Source:    string(l.Source),
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
	}
	// Wallet addresses are public; access tokens and account IDs are not
	if l.Type == link.TypeWallet {
		resp.ExternalRef = l.ExternalRef
	}
	return resp
}

func respondLinkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, link.ErrLinkNotFound):
		respondError(w, "link not found", http.StatusNotFound)
	case errors.Is(err, link.ErrUnauthorizedAccess):
		// Hide other users' links behind a 404
		respondError(w, "link not found", http.StatusNotFound)
	case errors.Is(err, link.ErrDuplicateLink):
		respondError(w, "link already exists", http.StatusConflict)
	case errors.Is(err, link.ErrInvalidType),
		errors.Is(err, link.ErrMissingName),
		errors.Is(err, link.ErrNameTooLong),
		errors.Is(err, link.ErrMissingExternalRef),
		errors.Is(err, link.ErrUnsupportedChain),
		errors.Is(err, link.ErrInvalidAddress),
		errors.Is(err, link.ErrInvalidChecksum):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "internal server error", http.StatusInternalServerError)
	}
}
