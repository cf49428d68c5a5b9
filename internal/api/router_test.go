package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"attendance.service/internal/core"
	"attendance.service/internal/core/policy"
	"attendance.service/internal/ports/repository"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestNewRouter_RegistersRoutes(t *testing.T) {
	store := repository.NewMemory()
	svc := core.NewAttendanceService(store, nil, policy.Default(), nil)
	sweeper := core.NewAbsenceSweeper(store, nil, policy.Default(), nil)
	r := NewRouter(svc, sweeper)

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/attendance/check-in"},
		{http.MethodPost, "/api/v1/attendance/check-out"},
		{http.MethodGet, "/api/v1/attendance/records"},
		{http.MethodGet, "/api/v1/attendance/u1/today"},
		{http.MethodGet, "/api/v1/attendance/u1/summary"},
		{http.MethodGet, "/api/v1/reports/attendance"},
		{http.MethodPost, "/api/v1/sweeps"},
		{http.MethodGet, "/api/v1/health"},
	}
	for _, tc := range cases {
		var match mux.RouteMatch
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.True(t, r.Match(req, &match), "%s %s", tc.method, tc.path)
	}
}

func TestHealth(t *testing.T) {
	r := NewRouter(nil, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Service is operational.", rr.Body.String())
}
