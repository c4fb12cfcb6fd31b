package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/domain/student/mocks"
)

func TestDefault(t *testing.T) {
	students, err := Default()
	require.NoError(t, err)
	require.Len(t, students, 1)

	st := students[0]
	assert.Equal(t, "Julian Hinze", st.Name)
	assert.Equal(t, student.MatriculationNumber("IU14102835"), st.MatriculationNumber)
	assert.Equal(t, "Angewandte KI B.Sc.", st.Program.Name)
	assert.Len(t, st.Program.Semesters, 6)
	assert.Equal(t, 4, st.Program.ModuleCount())

	sem, ok := st.Program.Semester(3)
	require.True(t, ok)
	assert.Nil(t, sem.Modules[3].Result)
	assert.Len(t, sem.Modules[3].Appointments, 2)

	p, err := student.NewProgress(st)
	require.NoError(t, err)

	earned, _ := p.CreditProgress(student.DefaultTargetCredits)
	assert.Equal(t, 15, earned)

	avg, ok := p.GradeAverage()
	require.True(t, ok)
	assert.Equal(t, 2.57, avg)

	upcoming := p.UpcomingAppointments(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, upcoming, 3)
	assert.Equal(t, "Klausur (Computer Vision)", upcoming[0].Label)
}

func TestParse_GermanStatusAndGradeOnly(t *testing.T) {
	doc := `
students:
  - name: Mia Schulz
    matriculation: IU1
    program:
      name: Informatik B.Sc.
      semesters:
        - number: 2
          modules:
            - title: Algorithmen
              credits: 10
              status: nicht bestanden
              grade: 5.0
            - title: Datenbanken
              credits: 5
              grade: 1.7
`
	students, err := Parse([]byte(doc))
	require.NoError(t, err)

	mods := students[0].Program.Semesters[0].Modules
	assert.Equal(t, student.ExamStatusFailed, mods[0].Result.Status)
	assert.Equal(t, student.ExamStatusOpen, mods[1].Result.Status)

	g, ok := mods[1].Grade()
	assert.True(t, ok)
	assert.Equal(t, 1.7, g)
}

func TestParse_ZeroGradeIsKept(t *testing.T) {
	doc := `
students:
  - name: Lea Wolf
    matriculation: IU2
    program:
      name: Physik B.Sc.
      semesters:
        - number: 1
          modules:
            - {title: Praktikum, credits: 5, status: passed, grade: 0}
`
	students, err := Parse([]byte(doc))
	require.NoError(t, err)

	g, ok := students[0].Program.Semesters[0].Modules[0].Grade()
	assert.True(t, ok)
	assert.Zero(t, g)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", ``},
		{"no students", `students: []`},
		{"missing name", `
students:
  - matriculation: X
    program: {name: P}
`},
		{"unknown field", `
students:
  - name: A
    matriculation: X
    nickname: Y
    program: {name: P}
`},
		{"zero credits", `
students:
  - name: A
    matriculation: X
    program:
      name: P
      semesters:
        - number: 1
          modules: [{title: M, credits: 0}]
`},
		{"negative grade", `
students:
  - name: A
    matriculation: X
    program:
      name: P
      semesters:
        - number: 1
          modules: [{title: M, credits: 5, grade: -1.0}]
`},
		{"bad date", `
students:
  - name: A
    matriculation: X
    program:
      name: P
      semesters:
        - number: 1
          modules:
            - title: M
              credits: 5
              appointments: [{title: Klausur, date: "01.07.2025"}]
`},
		{"unknown status", `
students:
  - name: A
    matriculation: X
    program:
      name: P
      semesters:
        - number: 1
          modules: [{title: M, credits: 5, status: graded}]
`},
		{"duplicate semester", `
students:
  - name: A
    matriculation: X
    program:
      name: P
      semesters: [{number: 1}, {number: 1}]
`},
		{"duplicate matriculation", `
students:
  - {name: A, matriculation: X, program: {name: P}}
  - {name: B, matriculation: X, program: {name: Q}}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrSeedInvalid)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, DefaultBytes(), 0o600))

	students, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	students, err = LoadFile("")
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWriter(ctrl)
	ctx := context.Background()

	students, err := Default()
	require.NoError(t, err)

	w.EXPECT().Save(ctx, students[0]).Return(nil)
	n, err := Seed(ctx, w, students)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	boom := errors.New("disk full")
	w.EXPECT().Save(ctx, gomock.Any()).Return(boom).Times(3)
	n, err = Seed(ctx, w, students)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestSeed_RetriesTransientFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWriter(ctrl)
	ctx := context.Background()

	students, err := Default()
	require.NoError(t, err)

	busy := shared.WrapError("sqlite", "Save", shared.ErrServiceUnavailable, "database is locked", errors.New("SQLITE_BUSY"))
	gomock.InOrder(
		w.EXPECT().Save(gomock.Any(), students[0]).Return(busy),
		w.EXPECT().Save(gomock.Any(), students[0]).Return(nil),
	)

	n, err := Seed(ctx, w, students)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeed_InvalidRecordIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWriter(ctrl)

	students, err := Default()
	require.NoError(t, err)

	w.EXPECT().Save(gomock.Any(), gomock.Any()).Return(student.ErrInvalidCredits).Times(1)

	n, err := Seed(context.Background(), w, students)
	assert.ErrorIs(t, err, student.ErrInvalidCredits)
	assert.Zero(t, n)
}
