// Package shared contains common domain types, errors and value objects
// that are used across all domain packages.
package shared

import (
	"strconv"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// MatriculationNumber identifies a student at the university (e.g. "IU14102835").
type MatriculationNumber string

// IsValid checks that the matriculation number is present.
func (m MatriculationNumber) IsValid() bool {
	return strings.TrimSpace(string(m)) != ""
}

// String returns the string representation.
func (m MatriculationNumber) String() string {
	return string(m)
}

// NewMatriculationNumber trims surrounding whitespace and checks presence.
func NewMatriculationNumber(value string) (MatriculationNumber, error) {
	m := MatriculationNumber(strings.TrimSpace(value))
	if !m.IsValid() {
		return "", ErrInvalidMatriculation
	}
	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Credit Value Object (ECTS)
// ═══════════════════════════════════════════════════════════════════════════

// ECTS is the workload unit awarded for completing a module.
type ECTS int

// IsValid checks that the credit value is positive.
func (e ECTS) IsValid() bool {
	return e > 0
}

// Int returns the underlying int value.
func (e ECTS) Int() int {
	return int(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// Semester Number Value Object
// ═══════════════════════════════════════════════════════════════════════════

// SemesterNumber is the ordinal of a semester inside a program (1-based).
type SemesterNumber int

// IsValid checks that the semester number is positive.
func (s SemesterNumber) IsValid() bool {
	return s > 0
}

// Int returns the underlying int value.
func (s SemesterNumber) Int() int {
	return int(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Grades
// ═══════════════════════════════════════════════════════════════════════════

// RoundGrade rounds a grade to two decimal places. The exact binary value is
// rounded half to even, so 1.075 (stored as 1.07499...) becomes 1.07.
func RoundGrade(value float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(value, 'f', 2, 64), 64)
	if err != nil {
		return value
	}
	return r
}

// AverageGrade calculates the arithmetic mean of the grades, rounded to two
// decimal places. The second result is false for an empty slice.
func AverageGrade(grades []float64) (float64, bool) {
	if len(grades) == 0 {
		return 0, false
	}

	var sum float64
	for _, g := range grades {
		sum += g
	}

	return RoundGrade(sum / float64(len(grades))), true
}

// FormatGrade renders a grade without trailing zeros but with at least one
// decimal place ("2.0", "2.57", "2.7").
func FormatGrade(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
