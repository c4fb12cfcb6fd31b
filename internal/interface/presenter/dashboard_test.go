package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyhub/study-dashboard/internal/application/query"
)

func TestFormatDashboard_ExampleReport(t *testing.T) {
	avg := 2.57
	d := &query.DashboardDTO{
		CurrentSemester: 3,
		TargetSemester:  6,
		EarnedCredits:   15,
		TargetCredits:   180,
		GradeAverage:    &avg,
		Grades: []query.GradeDTO{
			{Module: "Computer Vision", Grade: 2.0},
			{Module: "NLP Grundlagen", Grade: 3.0},
			{Module: "Reinforcement Learning", Grade: 2.7},
		},
		CurrentModules: []string{"Computer Vision", "NLP Grundlagen", "Reinforcement Learning", "Statistik & Wahrscheinlichkeit"},
		Appointments: []query.AppointmentDTO{
			{Label: "Klausur (Computer Vision)", DisplayDate: "01.07.2025"},
			{Label: "Abgabe Fallstudie (Statistik & Wahrscheinlichkeit)", DisplayDate: "15.07.2025"},
			{Label: "Klausur (Statistik & Wahrscheinlichkeit)", DisplayDate: "01.08.2025"},
		},
	}

	want := "\n=== Dashboard ===\n" +
		"Semester und ECTS: 3 / 6   |   15 / 180 ECTS\n" +
		"Notendurchschnitt: 2.57\n" +
		"  Computer Vision: 2.0\n" +
		"  NLP Grundlagen: 3.0\n" +
		"  Reinforcement Learning: 2.7\n" +
		"\nAktuell belegte Module:\n" +
		"  - Computer Vision\n" +
		"  - NLP Grundlagen\n" +
		"  - Reinforcement Learning\n" +
		"  - Statistik & Wahrscheinlichkeit\n" +
		"\nTermine:\n" +
		"  - Klausur (Computer Vision): 01.07.2025\n" +
		"  - Abgabe Fallstudie (Statistik & Wahrscheinlichkeit): 15.07.2025\n" +
		"  - Klausur (Statistik & Wahrscheinlichkeit): 01.08.2025\n" +
		"==================\n\n"

	assert.Equal(t, want, NewDashboardPresenter().FormatDashboard(d))
}

func TestFormatDashboard_NoGrades(t *testing.T) {
	d := &query.DashboardDTO{CurrentSemester: 1, TargetSemester: 6, TargetCredits: 180}

	out := NewDashboardPresenter().FormatDashboard(d)
	assert.Contains(t, out, "Semester und ECTS: 1 / 6   |   0 / 180 ECTS\n")
	assert.Contains(t, out, "Notendurchschnitt: –\n")
	assert.Contains(t, out, "\nAktuell belegte Module:\n\nTermine:\n==================\n")
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "Willkommen, Julian Hinze!", NewDashboardPresenter().Greeting("Julian Hinze"))
}
