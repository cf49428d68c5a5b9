package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/core"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.AttendanceService, sweeper *core.AbsenceSweeper) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{
		Service: service,
	}
	sweepHandler := handler.SweepHandler{
		Sweeper: sweeper,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/attendance/check-in", attendanceHandler.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/attendance/check-out", attendanceHandler.CheckOut).Methods(http.MethodPost)
	api.HandleFunc("/attendance/records", attendanceHandler.ListRecords).Methods(http.MethodGet)
	api.HandleFunc("/attendance/{userId}/today", attendanceHandler.GetToday).Methods(http.MethodGet)
	api.HandleFunc("/attendance/{userId}/summary", attendanceHandler.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/reports/attendance", attendanceHandler.Report).Methods(http.MethodGet)
	api.HandleFunc("/sweeps", sweepHandler.Run).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
