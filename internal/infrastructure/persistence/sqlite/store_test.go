package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/seed"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "data", "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	students, err := seed.Default()
	require.NoError(t, err)
	want := students[0]

	require.NoError(t, store.Save(ctx, want))

	got, err := store.FindByMatriculation(ctx, want.MatriculationNumber)
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Program.Name, got.Program.Name)
	require.Len(t, got.Program.Semesters, len(want.Program.Semesters))
	assert.Equal(t, want.Program.ModuleCount(), got.Program.ModuleCount())

	p, err := student.NewProgress(got)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentSemesterNumber())

	avg, ok := p.GradeAverage()
	assert.True(t, ok)
	assert.Equal(t, 2.57, avg)

	upcoming := p.UpcomingAppointments(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, upcoming, 3)
	assert.Equal(t, "Klausur (Computer Vision)", upcoming[0].Label)
	assert.Equal(t, "Abgabe Fallstudie (Statistik & Wahrscheinlichkeit)", upcoming[1].Label)
}

func TestStore_UnknownMatriculation(t *testing.T) {
	store := openTestStore(t)

	_, err := store.FindByMatriculation(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, student.ErrStudentNotFound)
}

func TestStore_SaveReplacesProgram(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first, err := student.NewStudent(student.NewStudentParams{
		Name:                "Lena Vogel",
		MatriculationNumber: "IU77",
		Program: student.Program{Name: "Cyber Security B.Sc.", Semesters: []student.Semester{
			{Number: 2, Modules: []student.Module{student.NewModule("Kryptographie", 5).Graded(1.3)}},
			{Number: 1, Modules: []student.Module{student.NewModule("Netzwerke", 5)}},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, first))

	got, err := store.FindByMatriculation(ctx, "IU77")
	require.NoError(t, err)
	require.Len(t, got.Program.Semesters, 2)
	assert.Equal(t, 2, got.Program.Semesters[0].Number, "insertion order is kept")
	assert.Nil(t, got.Program.Semesters[1].Modules[0].Result)

	second := first.Clone()
	second.Program.Semesters = second.Program.Semesters[:1]
	require.NoError(t, store.Save(ctx, second))

	got, err = store.FindByMatriculation(ctx, "IU77")
	require.NoError(t, err)
	require.Len(t, got.Program.Semesters, 1)

	g, ok := got.Program.Semesters[0].Modules[0].Grade()
	assert.True(t, ok)
	assert.Equal(t, 1.3, g)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	store := openTestStore(t)

	assert.ErrorIs(t, store.Save(context.Background(), nil), student.ErrStudentNotLoaded)
	assert.ErrorIs(t, store.Save(context.Background(), &student.Student{}), student.ErrInvalidMatriculation)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dashboard.db")

	store, err := Open(path)
	require.NoError(t, err)

	students, err := seed.Default()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, students[0]))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.FindByMatriculation(ctx, students[0].MatriculationNumber)
	assert.NoError(t, err)
	assert.Equal(t, path, store.Path())
}
