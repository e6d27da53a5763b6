package api

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// GetAvailability returns the remaining capacity per ticket type for the
// date given in the `date` query parameter (YYYY-MM-DD).
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date.invalid", "date must be YYYY-MM-DD")
		return
	}

	snapshot, err := h.avail.Snapshot(r.Context(), date)
	if err != nil {
		zctx.From(r.Context()).Error("availability snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
