//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/postgres"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/seed"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

type StudentRepositorySuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	conn      *postgres.Connection
	repo      *postgres.StudentRepository
}

func TestStudentRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StudentRepositorySuite))
}

func (s *StudentRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dashboard"),
		tcpostgres.WithUsername("dashboard"),
		tcpostgres.WithPassword("dashboard"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.conn, err = postgres.Connect(ctx, dsn, postgres.DefaultPoolOptions(), logger.Discard())
	s.Require().NoError(err)

	s.Require().NoError(postgres.NewMigrator(s.conn).Migrate(ctx))
	s.repo = postgres.NewStudentRepository(s.conn)
}

func (s *StudentRepositorySuite) TearDownSuite() {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *StudentRepositorySuite) SetupTest() {
	_, err := s.conn.Exec(context.Background(), `TRUNCATE students CASCADE`)
	s.Require().NoError(err)
}

func (s *StudentRepositorySuite) TestRoundTripPreservesOrderAndResults() {
	ctx := context.Background()

	students, err := seed.Default()
	s.Require().NoError(err)
	want := students[0]

	s.Require().NoError(s.repo.Save(ctx, want))

	got, err := s.repo.FindByMatriculation(ctx, want.MatriculationNumber)
	s.Require().NoError(err)
	s.Equal(want.Name, got.Name)
	s.Equal(want.Program.Name, got.Program.Name)
	s.Require().Len(got.Program.Semesters, 6)

	sem, ok := got.Program.Semester(3)
	s.Require().True(ok)
	s.Require().Len(sem.Modules, 4)
	s.Equal("Computer Vision", sem.Modules[0].Title)
	s.Nil(sem.Modules[3].Result)
	s.Require().Len(sem.Modules[3].Appointments, 2)
	s.Equal("Abgabe Fallstudie", sem.Modules[3].Appointments[0].Title)
	s.Equal(time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC), sem.Modules[3].Appointments[0].Date)

	p, err := student.NewProgress(got)
	s.Require().NoError(err)
	avg, ok := p.GradeAverage()
	s.True(ok)
	s.Equal(2.57, avg)
	earned, _ := p.CreditProgress(student.DefaultTargetCredits)
	s.Equal(15, earned)
}

func (s *StudentRepositorySuite) TestSaveReplacesProgram() {
	ctx := context.Background()

	first, err := student.NewStudent(student.NewStudentParams{
		Name:                "Lena Vogel",
		MatriculationNumber: "IU77",
		Program: student.Program{Name: "Cyber Security B.Sc.", Semesters: []student.Semester{
			{Number: 1, Modules: []student.Module{student.NewModule("Netzwerke", 5)}},
		}},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Save(ctx, first))

	second := first.Clone()
	second.Name = "Lena Vogel-Berg"
	second.Program.Semesters = []student.Semester{{Number: 2}}
	s.Require().NoError(s.repo.Save(ctx, second))

	got, err := s.repo.FindByMatriculation(ctx, "IU77")
	s.Require().NoError(err)
	s.Equal("Lena Vogel-Berg", got.Name)
	s.Require().Len(got.Program.Semesters, 1)
	s.Equal(2, got.Program.Semesters[0].Number)
	s.Empty(got.Program.Semesters[0].Modules)

	n, err := s.repo.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *StudentRepositorySuite) TestUnknownMatriculation() {
	_, err := s.repo.FindByMatriculation(context.Background(), "UNKNOWN")
	s.ErrorIs(err, student.ErrStudentNotFound)
}

func (s *StudentRepositorySuite) TestMigrationStatus() {
	status, err := postgres.NewMigrator(s.conn).Status(context.Background())
	s.Require().NoError(err)
	for _, m := range status {
		s.True(m.IsApplied, m.Name)
	}

	health, err := s.conn.Health(context.Background())
	s.Require().NoError(err)
	s.True(health.Healthy)
}
