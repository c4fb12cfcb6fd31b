// Package cli implements the interactive terminal dashboard.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/studyhub/study-dashboard/internal/application/query"
	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/internal/interface/presenter"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

// DashboardQuerier runs the dashboard query.
type DashboardQuerier interface {
	Handle(ctx context.Context, q query.GetDashboardQuery) (*query.GetDashboardResult, error)
}

// Config configures a Session.
type Config struct {
	TargetSemester int
	TargetCredits  int

	// Today returns the reference day for upcoming appointments.
	// Nil uses the campus calendar day.
	Today func() time.Time

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Session runs one prompt-and-report exchange over a reader and a writer.
type Session struct {
	dashboards DashboardQuerier
	presenter  *presenter.DashboardPresenter
	in         *bufio.Reader
	out        io.Writer
	cfg        Config
	log        *slog.Logger
}

// NewSession creates a session reading from in and writing to out.
func NewSession(dashboards DashboardQuerier, in io.Reader, out io.Writer, cfg Config) *Session {
	return &Session{
		dashboards: dashboards,
		presenter:  presenter.NewDashboardPresenter(),
		in:         bufio.NewReader(in),
		out:        out,
		cfg:        cfg,
		log:        logger.OrDefault(cfg.Logger),
	}
}

// Run prompts for a matriculation number and shows the dashboard.
// It reports whether the student was found.
func (s *Session) Run(ctx context.Context) (bool, error) {
	if _, err := io.WriteString(s.out, presenter.Prompt); err != nil {
		return false, err
	}

	line, err := s.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read matriculation number: %w", err)
	}

	return s.Show(ctx, line)
}

// Show looks up id and writes the greeting and report, or the unknown-number notice.
func (s *Session) Show(ctx context.Context, id string) (bool, error) {
	q := query.GetDashboardQuery{
		MatriculationNumber: strings.TrimSpace(id),
		TargetSemester:      s.cfg.TargetSemester,
		TargetCredits:       s.cfg.TargetCredits,
	}
	if s.cfg.Today != nil {
		q.ReferenceDate = s.cfg.Today()
	}

	result, err := s.dashboards.Handle(ctx, q)
	switch {
	case err != nil && shared.IsValidation(err):
		// An empty number cannot match any student.
		result = &query.GetDashboardResult{Found: false}
	case err != nil:
		return false, err
	}

	if !result.Found {
		_, err := fmt.Fprintln(s.out, presenter.UnknownMatriculation)
		return false, err
	}

	d := result.Dashboard
	if _, err := fmt.Fprintln(s.out, s.presenter.Greeting(d.StudentName)); err != nil {
		return true, err
	}
	if _, err := io.WriteString(s.out, s.presenter.FormatDashboard(d)); err != nil {
		return true, err
	}

	s.cfg.Metrics.IncRender("cli")
	s.log.DebugContext(ctx, "dashboard rendered", logger.Matriculation(d.MatriculationNumber))
	return true, nil
}
