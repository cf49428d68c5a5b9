package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/pkg/telemetry"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AttendanceHandler struct {
	Service *core.AttendanceService
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type AttendanceRequest struct {
	UserID string `json:"userId"`
}

type RecordResponse struct {
	Message string                  `json:"message"`
	Record  *model.AttendanceRecord `json:"record"`
}

func (h *AttendanceHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAttendanceRequest(w, r)
	if !ok {
		return
	}
	ctx := telemetry.WithUserID(r.Context(), req.UserID)

	rec, err := h.Service.CheckIn(ctx, req.UserID, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, RecordResponse{Message: checkInMessage(rec.Status), Record: rec})
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAttendanceRequest(w, r)
	if !ok {
		return
	}
	ctx := telemetry.WithUserID(r.Context(), req.UserID)

	rec, err := h.Service.CheckOut(ctx, req.UserID, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Checked out. Time worked: %s. Overtime: %.2f hours.", model.FormatMinutes(rec.WorkedMinutes()), rec.Overtime)
	writeJSON(w, http.StatusOK, RecordResponse{Message: msg, Record: rec})
}

func (h *AttendanceHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	status, err := h.Service.GetTodayStatus(r.Context(), userID, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AttendanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	month := h.Service.Today(h.now())
	if raw := r.URL.Query().Get("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		month = model.Day{Year: t.Year(), Month: t.Month(), Day: 1}
	}

	summary, err := h.Service.Summarize(r.Context(), userID, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AttendanceHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}

	records, err := h.Service.ListRecords(r.Context(), r.URL.Query().Get("userId"), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	requesterID := r.Header.Get("X-User-ID")
	if requesterID == "" {
		writeMessage(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}
	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("app.requesterId", requesterID))
	rows, err := h.Service.Report(r.Context(), requesterID, r.URL.Query().Get("userId"), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func checkInMessage(status model.Status) string {
	switch status {
	case model.StatusLate:
		return "Checked in late. Today has been recorded as LATE."
	case model.StatusAbsent:
		return "Checked in after the absence cut-off. Today has been recorded as ABSENT."
	default:
		return "Checked in successfully."
	}
}

func decodeAttendanceRequest(w http.ResponseWriter, r *http.Request) (AttendanceRequest, bool) {
	var req AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if req.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return req, false
	}
	return req, true
}

func parseRange(w http.ResponseWriter, r *http.Request) (start, end model.Day, ok bool) {
	q := r.URL.Query()
	start, err := model.ParseDay(q.Get("start"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "start must be formatted as YYYY-MM-DD")
		return start, end, false
	}
	end, err = model.ParseDay(q.Get("end"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "end must be formatted as YYYY-MM-DD")
		return start, end, false
	}
	return start, end, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeMessage(w, status, msg)
}
