package handler

import (
	"context"
	"errors"
	"net/http"

	"eventshred/internal/platform/lock"
	"eventshred/internal/shred"
	"eventshred/internal/shred/service"
	"eventshred/pkg/platform/httputil"
	"eventshred/pkg/platform/sentinel"
)

// writeError maps service errors onto the wire. Ineligibility and a held
// lock are caller-resolvable conflicts and keep their reason; everything
// unexpected becomes an opaque 500.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var ineligible *shred.IneligibleError
	switch {
	case errors.As(err, &ineligible):
		httputil.WriteError(w, http.StatusConflict, "ineligible", ineligible.Reason)
	case errors.Is(err, lock.ErrLocked):
		httputil.WriteError(w, http.StatusConflict, "locked", err.Error())
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, service.ErrUnknownShredder):
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		h.logger.ErrorContext(ctx, "request failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
