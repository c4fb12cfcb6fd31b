// Package presenter formats dashboard data as a German text report.
package presenter

import (
	"fmt"
	"strings"

	"github.com/studyhub/study-dashboard/internal/application/query"
	"github.com/studyhub/study-dashboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD PRESENTER
// Форматирует дашборд как текстовый отчёт на немецком языке:
// прогресс, средний балл, оценки, текущие модули и ближайшие события.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// Prompt - приглашение ввести матрикульный номер.
	Prompt = "Matrikelnummer eingeben: "

	// UnknownMatriculation - ответ на неизвестный номер.
	UnknownMatriculation = "Unbekannte Matrikelnummer."

	// MissingAverage - заменитель среднего балла, если оценок нет.
	MissingAverage = "–"

	header = "=== Dashboard ==="
	footer = "=================="
)

// DashboardPresenter форматирует дашборд для терминала.
type DashboardPresenter struct{}

// NewDashboardPresenter создаёт новый презентер.
func NewDashboardPresenter() *DashboardPresenter {
	return &DashboardPresenter{}
}

// Greeting возвращает приветствие студента.
func (p *DashboardPresenter) Greeting(name string) string {
	return fmt.Sprintf("Willkommen, %s!", name)
}

// FormatDashboard форматирует полный отчёт.
func (p *DashboardPresenter) FormatDashboard(d *query.DashboardDTO) string {
	var sb strings.Builder

	sb.WriteString("\n" + header + "\n")
	fmt.Fprintf(&sb, "Semester und ECTS: %d / %d   |   %d / %d ECTS\n",
		d.CurrentSemester, d.TargetSemester, d.EarnedCredits, d.TargetCredits)
	fmt.Fprintf(&sb, "Notendurchschnitt: %s\n", FormatAverage(d.GradeAverage))

	for _, g := range d.Grades {
		fmt.Fprintf(&sb, "  %s: %s\n", g.Module, shared.FormatGrade(g.Grade))
	}

	sb.WriteString("\nAktuell belegte Module:\n")
	for _, title := range d.CurrentModules {
		fmt.Fprintf(&sb, "  - %s\n", title)
	}

	sb.WriteString("\nTermine:\n")
	for _, a := range d.Appointments {
		fmt.Fprintf(&sb, "  - %s: %s\n", a.Label, a.DisplayDate)
	}

	sb.WriteString(footer + "\n\n")
	return sb.String()
}

// FormatAverage возвращает средний балл или заменитель.
func FormatAverage(avg *float64) string {
	if avg == nil {
		return MissingAverage
	}
	return shared.FormatGrade(*avg)
}
