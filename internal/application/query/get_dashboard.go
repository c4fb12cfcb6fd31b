// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/pkg/logger"
	"github.com/studyhub/study-dashboard/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Загружает студента по матрикульному номеру и собирает все значения дашборда:
// прогресс по семестрам и ECTS, средний балл, оценки, текущие модули и события.
// Это единственный запрос, который используют CLI и HTTP API.
// ══════════════════════════════════════════════════════════════════════════════

const tracerName = "github.com/studyhub/study-dashboard/internal/application/query"

// GetDashboardQuery содержит параметры запроса дашборда.
type GetDashboardQuery struct {
	// MatriculationNumber - матрикульный номер студента (обязательный).
	MatriculationNumber string

	// TargetSemester - плановое число семестров (по умолчанию 6).
	TargetSemester int

	// TargetCredits - плановое число ECTS (по умолчанию 180).
	TargetCredits int

	// ReferenceDate - день, с которого считаются предстоящие события.
	// Нулевое значение означает "сегодня" в часовом поясе кампуса.
	ReferenceDate time.Time
}

// Validate проверяет параметры и подставляет значения по умолчанию.
func (q *GetDashboardQuery) Validate() error {
	q.MatriculationNumber = strings.TrimSpace(q.MatriculationNumber)
	if q.MatriculationNumber == "" {
		return student.ErrInvalidMatriculation
	}
	if q.TargetSemester < 0 || q.TargetCredits < 0 {
		return student.ErrInvalidTarget
	}
	if q.TargetSemester == 0 {
		q.TargetSemester = student.DefaultTargetSemester
	}
	if q.TargetCredits == 0 {
		q.TargetCredits = student.DefaultTargetCredits
	}
	if q.ReferenceDate.IsZero() {
		q.ReferenceDate = timeutil.Today()
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// DTOs
// ──────────────────────────────────────────────────────────────────────────────

// GradeDTO - оценка по модулю.
type GradeDTO struct {
	Module string  `json:"module"`
	Grade  float64 `json:"grade"`
}

// AppointmentDTO - предстоящее событие.
type AppointmentDTO struct {
	// Label - "<событие> (<модуль>)".
	Label string `json:"label"`

	// Date - календарный день в формате YYYY-MM-DD.
	Date string `json:"date"`

	// DisplayDate - тот же день в формате DD.MM.YYYY.
	DisplayDate string `json:"display_date"`

	// Relative - расстояние от даты запроса ("morgen", "in 5 Tagen").
	Relative string `json:"relative"`
}

// DashboardDTO - все значения, которые показывает дашборд.
type DashboardDTO struct {
	StudentName         string `json:"student_name"`
	MatriculationNumber string `json:"matriculation_number"`
	ProgramName         string `json:"program_name"`

	CurrentSemester int `json:"current_semester"`
	TargetSemester  int `json:"target_semester"`
	EarnedCredits   int `json:"earned_credits"`
	TargetCredits   int `json:"target_credits"`

	// GradeAverage - nil, если ни одна оценка не выставлена.
	GradeAverage *float64 `json:"grade_average"`

	Grades         []GradeDTO       `json:"grades"`
	CurrentModules []string         `json:"current_modules"`
	Appointments   []AppointmentDTO `json:"appointments"`

	ReferenceDate string `json:"reference_date"`
}

// GetDashboardResult содержит результат запроса дашборда.
type GetDashboardResult struct {
	// Found - false, если студент с таким номером не найден.
	Found bool `json:"found"`

	// Dashboard - заполнен только при Found.
	Dashboard *DashboardDTO `json:"dashboard,omitempty"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// GetDashboardHandler обрабатывает запросы дашборда.
type GetDashboardHandler struct {
	repo    student.Repository
	backend string
	metrics *metrics.Metrics
	tracer  trace.Tracer
	log     *slog.Logger
}

// NewGetDashboardHandler создаёт новый обработчик.
// backend - имя хранилища для метрик и логов.
func NewGetDashboardHandler(
	repo student.Repository,
	backend string,
	m *metrics.Metrics,
	log *slog.Logger,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		repo:    repo,
		backend: backend,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		log:     logger.OrDefault(log),
	}
}

// Handle выполняет запрос. Неизвестный номер - не ошибка, а результат с Found=false.
func (h *GetDashboardHandler) Handle(ctx context.Context, query GetDashboardQuery) (*GetDashboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetDashboard", shared.ErrValidation, err.Error(), err)
	}

	ctx, span := h.tracer.Start(ctx, "GetDashboard", trace.WithAttributes(
		attribute.String("student.matriculation", query.MatriculationNumber),
		attribute.String("storage.backend", h.backend),
	))
	defer span.End()

	start := time.Now()
	stud, err := h.repo.FindByMatriculation(ctx, student.MatriculationNumber(query.MatriculationNumber))
	switch {
	case errors.Is(err, student.ErrStudentNotFound):
		h.metrics.ObserveLookup(h.backend, metrics.OutcomeNotFound, start)
		span.SetAttributes(attribute.Bool("student.found", false))
		h.log.InfoContext(ctx, "student not found",
			logger.Matriculation(query.MatriculationNumber),
			logger.Backend(h.backend),
		)
		return &GetDashboardResult{Found: false, GeneratedAt: time.Now().UTC()}, nil

	case err != nil:
		h.metrics.ObserveLookup(h.backend, metrics.OutcomeError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, shared.WrapError("query", "GetDashboard", shared.ErrExternalService, "student lookup failed", err)
	}

	h.metrics.ObserveLookup(h.backend, metrics.OutcomeFound, start)
	span.SetAttributes(attribute.Bool("student.found", true))

	dto, err := BuildDashboard(stud, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}

	h.log.DebugContext(ctx, "dashboard assembled",
		logger.Matriculation(dto.MatriculationNumber),
		logger.Backend(h.backend),
		logger.Latency(time.Since(start)),
	)

	return &GetDashboardResult{
		Found:       true,
		Dashboard:   dto,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// BuildDashboard вычисляет значения дашборда для загруженного студента.
// query должен пройти Validate.
func BuildDashboard(stud *student.Student, query GetDashboardQuery) (*DashboardDTO, error) {
	p, err := student.NewProgress(stud)
	if err != nil {
		return nil, err
	}

	current, targetSemester := p.SemesterProgress(query.TargetSemester)
	earned, targetCredits := p.CreditProgress(query.TargetCredits)

	dto := &DashboardDTO{
		StudentName:         stud.Name,
		MatriculationNumber: stud.MatriculationNumber.String(),
		ProgramName:         stud.Program.Name,
		CurrentSemester:     current,
		TargetSemester:      targetSemester,
		EarnedCredits:       earned,
		TargetCredits:       targetCredits,
		Grades:              []GradeDTO{},
		CurrentModules:      []string{},
		Appointments:        []AppointmentDTO{},
		ReferenceDate:       timeutil.FormatISO(query.ReferenceDate),
	}

	if avg, ok := p.GradeAverage(); ok {
		dto.GradeAverage = &avg
	}

	for _, g := range p.GradeList() {
		dto.Grades = append(dto.Grades, GradeDTO{Module: g.ModuleTitle, Grade: g.Grade})
	}

	dto.CurrentModules = append(dto.CurrentModules, p.CurrentModules()...)

	for _, a := range p.UpcomingAppointments(query.ReferenceDate) {
		dto.Appointments = append(dto.Appointments, AppointmentDTO{
			Label:       a.Label,
			Date:        timeutil.FormatISO(a.Date),
			DisplayDate: timeutil.FormatGerman(a.Date),
			Relative:    timeutil.FormatRelative(a.Date, query.ReferenceDate),
		})
	}

	return dto, nil
}
