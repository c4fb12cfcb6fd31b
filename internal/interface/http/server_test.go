package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/studyhub/study-dashboard/internal/application/query"
	"github.com/studyhub/study-dashboard/internal/domain/student/mocks"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/memory"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/seed"
	"github.com/studyhub/study-dashboard/internal/interface/http/handlers"
	"github.com/studyhub/study-dashboard/pkg/circuitbreaker"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

type envelope struct {
	Success   bool               `json:"success"`
	Data      json.RawMessage    `json:"data"`
	Error     *handlers.APIError `json:"error"`
	RequestID string             `json:"request_id"`
}

func newTestServer(t *testing.T, dashboards handlers.DashboardQuerier, checker handlers.HealthChecker) *Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	return NewServer(DefaultConfig(), Dependencies{
		Dashboards:    dashboards,
		HealthChecker: checker,
		Metrics:       metrics.New(reg),
		Gatherer:      reg,
		Logger:        logger.Discard(),
	})
}

func seededHandler(t *testing.T) *query.GetDashboardHandler {
	t.Helper()
	students, err := seed.Default()
	require.NoError(t, err)
	return query.NewGetDashboardHandler(memory.NewStudentRepository(students...), "memory", nil, logger.Discard())
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServer_Dashboard(t *testing.T) {
	s := newTestServer(t, seededHandler(t), nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/students/IU14102835/dashboard?date=2025-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.RequestID)

	var d query.DashboardDTO
	require.NoError(t, json.Unmarshal(body.Data, &d))
	assert.Equal(t, "Julian Hinze", d.StudentName)
	assert.Equal(t, 3, d.CurrentSemester)
	assert.Equal(t, 15, d.EarnedCredits)
	require.NotNil(t, d.GradeAverage)
	assert.Equal(t, 2.57, *d.GradeAverage)
	assert.Len(t, d.Appointments, 3)
}

func TestServer_DashboardText(t *testing.T) {
	s := newTestServer(t, seededHandler(t), nil)

	rec, _ := do(t, s, http.MethodGet, "/api/v1/students/IU14102835/dashboard?date=2025-07-16&format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	text := rec.Body.String()
	assert.True(t, strings.HasPrefix(text, "Willkommen, Julian Hinze!\n\n=== Dashboard ===\n"))
	assert.Contains(t, text, "Termine:\n  - Klausur (Statistik & Wahrscheinlichkeit): 01.08.2025\n==================\n")
}

func TestServer_DashboardUnknown(t *testing.T) {
	s := newTestServer(t, seededHandler(t), nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/students/UNKNOWN/dashboard")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, handlers.CodeStudentNotFound, body.Error.Code)
}

func TestServer_DashboardBadParams(t *testing.T) {
	s := newTestServer(t, seededHandler(t), nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/students/IU14102835/dashboard?date=01.07.2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handlers.CodeBadRequest, body.Error.Code)

	rec, _ = do(t, s, http.MethodGet, "/api/v1/students/IU14102835/dashboard?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DashboardStoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().FindByMatriculation(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	s := newTestServer(t, query.NewGetDashboardHandler(repo, "postgres", nil, logger.Discard()), nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/students/IU1/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, handlers.CodeServiceUnavailable, body.Error.Code)
}

type panickingQuerier struct{}

func (panickingQuerier) Handle(context.Context, query.GetDashboardQuery) (*query.GetDashboardResult, error) {
	panic("boom")
}

func TestServer_RecoversFromPanic(t *testing.T) {
	s := newTestServer(t, panickingQuerier{}, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/students/IU1/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, handlers.CodeInternal, body.Error.Code)
}

func TestServer_Health(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("store", func(context.Context) error { return nil })
	checker.AddOptionalCheck("cache", func(context.Context) error { return errors.New("down") })

	s := newTestServer(t, seededHandler(t), checker)

	rec, body := do(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.True(t, status.Healthy)
	assert.False(t, status.Checks["cache"].Healthy)

	checker.AddCheck("store", func(context.Context) error { return errors.New("gone") })
	rec, _ = do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_HealthReportsOpenCacheBreaker(t *testing.T) {
	breaker := circuitbreaker.New("student-cache", circuitbreaker.WithFailureThreshold(1))
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddOptionalCheck("cache_breaker", handlers.NewBreakerCheck(breaker))

	s := newTestServer(t, seededHandler(t), checker)

	_, body := do(t, s, http.MethodGet, "/health")
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.True(t, status.Checks["cache_breaker"].Healthy)

	_ = breaker.Execute(context.Background(), func(context.Context) error { return errors.New("timeout") })

	rec, body := do(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.True(t, status.Healthy)
	assert.False(t, status.Checks["cache_breaker"].Healthy)
	assert.Equal(t, "circuit student-cache is open: 1 of 1 requests failed", status.Checks["cache_breaker"].Message)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, seededHandler(t), nil)

	do(t, s, http.MethodGet, "/api/v1/students/IU14102835/dashboard")

	rec, _ := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dashboard_http_requests_total{method="GET",route="/api/v1/students/{matriculation}/dashboard",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `dashboard_renders_total{surface="http"} 1`)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, seededHandler(t), nil)

	rec, body := do(t, s, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body.Error.Code)
}
