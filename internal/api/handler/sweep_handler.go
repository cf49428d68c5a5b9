package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
)

// SweepHandler runs the absence sweep on demand, e.g. for a day the
// scheduler missed.
type SweepHandler struct {
	Sweeper *core.AbsenceSweeper
	Clock   func() time.Time
}

func (h *SweepHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req messaging.SweepTrigger
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trigger := req.TriggeredAt
	if trigger.IsZero() {
		trigger = time.Now()
		if h.Clock != nil {
			trigger = h.Clock()
		}
	}

	result, err := h.Sweeper.Run(r.Context(), trigger)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
