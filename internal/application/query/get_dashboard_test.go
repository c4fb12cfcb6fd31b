package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/domain/student/mocks"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/seed"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

func newHandler(t *testing.T) (*GetDashboardHandler, *mocks.MockRepository, *metrics.Metrics) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	return NewGetDashboardHandler(repo, "memory", m, logger.Discard()), repo, m
}

func defaultStudent(t *testing.T) *student.Student {
	t.Helper()
	students, err := seed.Default()
	require.NoError(t, err)
	return students[0]
}

func TestGetDashboardQuery_Validate(t *testing.T) {
	q := GetDashboardQuery{MatriculationNumber: "  IU14102835 "}
	require.NoError(t, q.Validate())

	assert.Equal(t, "IU14102835", q.MatriculationNumber)
	assert.Equal(t, 6, q.TargetSemester)
	assert.Equal(t, 180, q.TargetCredits)
	assert.False(t, q.ReferenceDate.IsZero())

	empty := GetDashboardQuery{MatriculationNumber: "   "}
	assert.ErrorIs(t, empty.Validate(), student.ErrInvalidMatriculation)

	negative := GetDashboardQuery{MatriculationNumber: "IU1", TargetCredits: -1}
	err := negative.Validate()
	assert.ErrorIs(t, err, student.ErrInvalidTarget)
	assert.True(t, shared.IsValidation(err))

	negative = GetDashboardQuery{MatriculationNumber: "IU1", TargetSemester: -2}
	assert.ErrorIs(t, negative.Validate(), student.ErrInvalidTarget)
}

func TestGetDashboardHandler_ExampleDataset(t *testing.T) {
	h, repo, m := newHandler(t)
	stud := defaultStudent(t)

	repo.EXPECT().
		FindByMatriculation(gomock.Any(), student.MatriculationNumber("IU14102835")).
		Return(stud, nil)

	result, err := h.Handle(context.Background(), GetDashboardQuery{
		MatriculationNumber: "IU14102835",
		ReferenceDate:       time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, result.Found)

	d := result.Dashboard
	assert.Equal(t, "Julian Hinze", d.StudentName)
	assert.Equal(t, "Angewandte KI B.Sc.", d.ProgramName)
	assert.Equal(t, 3, d.CurrentSemester)
	assert.Equal(t, 6, d.TargetSemester)
	assert.Equal(t, 15, d.EarnedCredits)
	assert.Equal(t, 180, d.TargetCredits)
	require.NotNil(t, d.GradeAverage)
	assert.Equal(t, 2.57, *d.GradeAverage)

	assert.Equal(t, []GradeDTO{
		{Module: "Computer Vision", Grade: 2.0},
		{Module: "NLP Grundlagen", Grade: 3.0},
		{Module: "Reinforcement Learning", Grade: 2.7},
	}, d.Grades)
	assert.Equal(t, []string{
		"Computer Vision", "NLP Grundlagen", "Reinforcement Learning", "Statistik & Wahrscheinlichkeit",
	}, d.CurrentModules)

	require.Len(t, d.Appointments, 3)
	assert.Equal(t, AppointmentDTO{
		Label:       "Klausur (Computer Vision)",
		Date:        "2025-07-01",
		DisplayDate: "01.07.2025",
		Relative:    "in 181 Tagen",
	}, d.Appointments[0])
	assert.Equal(t, "Abgabe Fallstudie (Statistik & Wahrscheinlichkeit)", d.Appointments[1].Label)
	assert.Equal(t, "Klausur (Statistik & Wahrscheinlichkeit)", d.Appointments[2].Label)
	assert.Equal(t, "2025-01-01", d.ReferenceDate)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(metrics.OutcomeFound)))
}

func TestGetDashboardHandler_UnknownIsAbsence(t *testing.T) {
	h, repo, m := newHandler(t)

	repo.EXPECT().
		FindByMatriculation(gomock.Any(), student.MatriculationNumber("UNKNOWN")).
		Return(nil, student.ErrStudentNotFound)

	result, err := h.Handle(context.Background(), GetDashboardQuery{MatriculationNumber: "UNKNOWN"})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.Dashboard)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(metrics.OutcomeNotFound)))
}

func TestGetDashboardHandler_RepositoryFailure(t *testing.T) {
	h, repo, m := newHandler(t)

	repo.EXPECT().
		FindByMatriculation(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	_, err := h.Handle(context.Background(), GetDashboardQuery{MatriculationNumber: "IU1"})
	require.Error(t, err)
	assert.True(t, shared.IsExternalService(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(metrics.OutcomeError)))
}

func TestGetDashboardHandler_InvalidQuery(t *testing.T) {
	h, _, _ := newHandler(t)

	_, err := h.Handle(context.Background(), GetDashboardQuery{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestBuildDashboard_EmptyProgram(t *testing.T) {
	stud, err := student.NewStudent(student.NewStudentParams{
		Name:                "Mara Lenz",
		MatriculationNumber: "IU5",
		Program:             student.Program{Name: "Informatik B.Sc."},
	})
	require.NoError(t, err)

	q := GetDashboardQuery{MatriculationNumber: "IU5"}
	require.NoError(t, q.Validate())

	d, err := BuildDashboard(stud, q)
	require.NoError(t, err)
	assert.Equal(t, 1, d.CurrentSemester)
	assert.Equal(t, 0, d.EarnedCredits)
	assert.Nil(t, d.GradeAverage)
	assert.NotNil(t, d.Grades)
	assert.Empty(t, d.Grades)
	assert.Empty(t, d.CurrentModules)
	assert.Empty(t, d.Appointments)
}

func TestBuildDashboard_RequiresStudent(t *testing.T) {
	_, err := BuildDashboard(nil, GetDashboardQuery{})
	assert.ErrorIs(t, err, student.ErrStudentNotLoaded)
}
