package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyhub/study-dashboard/internal/application/query"
	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/internal/interface/presenter"
	"github.com/studyhub/study-dashboard/pkg/logger"
	"github.com/studyhub/study-dashboard/pkg/timeutil"
)

// DashboardQuerier runs the dashboard query.
type DashboardQuerier interface {
	Handle(ctx context.Context, q query.GetDashboardQuery) (*query.GetDashboardResult, error)
}

// DashboardConfig holds the program targets used for every request.
type DashboardConfig struct {
	TargetSemester int
	TargetCredits  int
}

// DashboardHandler serves student dashboards.
type DashboardHandler struct {
	dashboards DashboardQuerier
	presenter  *presenter.DashboardPresenter
	cfg        DashboardConfig
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(dashboards DashboardQuerier, cfg DashboardConfig, log *slog.Logger, m *metrics.Metrics) *DashboardHandler {
	return &DashboardHandler{
		dashboards: dashboards,
		presenter:  presenter.NewDashboardPresenter(),
		cfg:        cfg,
		logger:     logger.OrDefault(log),
		metrics:    m,
	}
}

// Register mounts dashboard endpoints on the router.
func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/api/v1/students/{matriculation}/dashboard", h.HandleGetDashboard)
}

// HandleGetDashboard handles GET /api/v1/students/{matriculation}/dashboard.
//
// Query parameters:
//   - date: reference day YYYY-MM-DD (default: today on campus)
//   - format: "json" (default) or "text"
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := query.GetDashboardQuery{
		MatriculationNumber: chi.URLParam(r, "matriculation"),
		TargetSemester:      h.cfg.TargetSemester,
		TargetCredits:       h.cfg.TargetCredits,
	}

	if raw := r.URL.Query().Get("date"); raw != "" {
		ref, err := timeutil.ParseDate(raw)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, CodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		q.ReferenceDate = ref
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "text" {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, "format must be json or text")
		return
	}

	result, err := h.dashboards.Handle(ctx, q)
	if err != nil {
		h.writeQueryError(w, r, q.MatriculationNumber, err)
		return
	}

	if !result.Found {
		WriteError(w, r, http.StatusNotFound, CodeStudentNotFound, "Unbekannte Matrikelnummer")
		return
	}

	h.metrics.IncRender("http")

	if format == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(h.presenter.Greeting(result.Dashboard.StudentName) + "\n" +
			h.presenter.FormatDashboard(result.Dashboard)))
		return
	}

	WriteJSON(w, r, http.StatusOK, result.Dashboard)
}

func (h *DashboardHandler) writeQueryError(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case shared.IsValidation(err):
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
	case shared.IsExternalService(err), errors.Is(err, context.DeadlineExceeded):
		h.logger.ErrorContext(r.Context(), "dashboard lookup failed",
			logger.RequestID(RequestID(r.Context())),
			logger.Matriculation(id),
			logger.Err(err),
		)
		w.Header().Set("Retry-After", "5")
		WriteError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable, "student records are temporarily unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "dashboard failed",
			logger.RequestID(RequestID(r.Context())),
			logger.Matriculation(id),
			logger.Err(err),
		)
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}
