package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventshred/internal/shred"
	"eventshred/internal/shred/service"
	"eventshred/pkg/platform/httputil"
)

// Service is what the transport needs from the shredding service.
type Service interface {
	List(ctx context.Context, slug string) ([]service.ShredderInfo, error)
	Check(ctx context.Context, slug string) error
	Export(ctx context.Context, slug string, identifiers []string) ([]shred.ExportFile, error)
	Shred(ctx context.Context, slug string, identifiers []string) error
}

// Handler is the thin HTTP layer over the shredding service. Access control
// is deliberately absent here; deployments front this service with their
// gateway.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register wires the shredding routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events/{event}/shredders", h.handleList)
	r.Post("/events/{event}/shred/export", h.handleExport)
	r.Post("/events/{event}/shred", h.handleShred)
}

type shredRequest struct {
	Shredders []string `json:"shredders"`
}

type listResponse struct {
	Event     string                 `json:"event"`
	Eligible  bool                   `json:"eligible"`
	Reason    string                 `json:"reason,omitempty"`
	Shredders []service.ShredderInfo `json:"shredders"`
}

type exportFile struct {
	Name        string          `json:"name"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content"`
}

type exportResponse struct {
	Event string       `json:"event"`
	Files []exportFile `json:"files"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "event")

	infos, err := h.svc.List(ctx, slug)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	resp := listResponse{Event: slug, Eligible: true, Shredders: infos}
	if err := h.svc.Check(ctx, slug); err != nil {
		var ineligible *shred.IneligibleError
		if !errors.As(err, &ineligible) {
			h.writeError(ctx, w, err)
			return
		}
		resp.Eligible = false
		resp.Reason = ineligible.Reason
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "event")

	req, ok := h.decodeSelection(w, r)
	if !ok {
		return
	}
	files, err := h.svc.Export(ctx, slug, req.Shredders)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	resp := exportResponse{Event: slug, Files: make([]exportFile, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, exportFile{
			Name:        f.Name,
			ContentType: f.ContentType,
			Content:     json.RawMessage(f.Content),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleShred(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "event")

	req, ok := h.decodeSelection(w, r)
	if !ok {
		return
	}
	if err := h.svc.Shred(ctx, slug, req.Shredders); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeSelection reads the optional shredder selection. An empty body
// selects all shredders.
func (h *Handler) decodeSelection(w http.ResponseWriter, r *http.Request) (shredRequest, bool) {
	var req shredRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return req, false
	}
	return req, true
}
