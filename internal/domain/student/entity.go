package student

import (
	"strings"
	"time"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// MatriculationNumber - матрикульный номер студента (уникальный идентификатор).
type MatriculationNumber = shared.MatriculationNumber

// ECTS - кредиты, начисляемые за модуль.
type ECTS = shared.ECTS

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// ExamStatus определяет состояние экзамена по модулю.
type ExamStatus string

const (
	// ExamStatusOpen - экзамен ещё не сдан и не провален.
	ExamStatusOpen ExamStatus = "open"
	// ExamStatusPassed - экзамен сдан, кредиты засчитываются.
	ExamStatusPassed ExamStatus = "passed"
	// ExamStatusFailed - экзамен не сдан.
	ExamStatusFailed ExamStatus = "failed"
)

// IsValid проверяет, что статус корректен.
func (s ExamStatus) IsValid() bool {
	switch s {
	case ExamStatusOpen, ExamStatusPassed, ExamStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление статуса.
func (s ExamStatus) String() string {
	return string(s)
}

// ParseExamStatus разбирает статус экзамена.
// Помимо английских значений принимает немецкие подписи из учебного офиса
// ("offen", "bestanden", "nicht bestanden"). Пустая строка означает "open".
func ParseExamStatus(value string) (ExamStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "open", "offen":
		return ExamStatusOpen, nil
	case "passed", "bestanden":
		return ExamStatusPassed, nil
	case "failed", "nicht bestanden", "nicht_bestanden":
		return ExamStatusFailed, nil
	default:
		return "", shared.WrapError("exam", "Parse", shared.ErrInvalidInput, "unknown exam status", ErrInvalidExamStatus)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Appointment - датированное событие модуля (экзамен, сдача работы).
type Appointment struct {
	// Title - название события, например "Klausur".
	Title string `json:"title"`

	// Date - календарный день события. Время суток не учитывается.
	Date time.Time `json:"date"`
}

// ExamResult - результат экзамена по модулю.
type ExamResult struct {
	// Grade - оценка; nil означает, что оценка ещё не выставлена.
	Grade *float64 `json:"grade,omitempty"`

	// Status - состояние экзамена.
	Status ExamStatus `json:"status"`
}

// HasGrade возвращает true, если оценка выставлена.
func (r *ExamResult) HasGrade() bool {
	return r != nil && r.Grade != nil
}

// Module - учебный модуль внутри семестра.
type Module struct {
	// Title - название модуля.
	Title string `json:"title"`

	// Credits - количество ECTS за модуль.
	Credits ECTS `json:"credits"`

	// Result - результат экзамена (0..1).
	Result *ExamResult `json:"result,omitempty"`

	// Appointments - события модуля в порядке добавления (не сортируются).
	Appointments []Appointment `json:"appointments,omitempty"`
}

// IsPassed возвращает true, если экзамен по модулю сдан.
func (m Module) IsPassed() bool {
	return m.Result != nil && m.Result.Status == ExamStatusPassed
}

// Grade возвращает оценку модуля, если она выставлена.
// Статус экзамена здесь намеренно не проверяется.
func (m Module) Grade() (float64, bool) {
	if !m.Result.HasGrade() {
		return 0, false
	}
	return *m.Result.Grade, true
}

// Semester - пронумерованная группа модулей.
type Semester struct {
	// Number - номер семестра, уникальный внутри программы.
	Number int `json:"number"`

	// Modules - модули в порядке добавления.
	Modules []Module `json:"modules,omitempty"`
}

// HasModules возвращает true, если в семестре есть хотя бы один модуль.
func (s Semester) HasModules() bool {
	return len(s.Modules) > 0
}

// Program - учебная программа (Studiengang).
type Program struct {
	// Name - название программы, например "Angewandte KI B.Sc.".
	Name string `json:"name"`

	// Semesters - семестры в порядке добавления; номера не обязаны идти подряд.
	Semesters []Semester `json:"semesters,omitempty"`
}

// Semester возвращает семестр с указанным номером.
func (p Program) Semester(number int) (Semester, bool) {
	for _, s := range p.Semesters {
		if s.Number == number {
			return s, true
		}
	}
	return Semester{}, false
}

// ModuleCount возвращает общее количество модулей во всех семестрах.
func (p Program) ModuleCount() int {
	n := 0
	for _, s := range p.Semesters {
		n += len(s.Modules)
	}
	return n
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - корень агрегата: студент и его единственная программа.
type Student struct {
	// Name - имя студента.
	Name string `json:"name"`

	// MatriculationNumber - уникальный идентификатор студента.
	MatriculationNumber MatriculationNumber `json:"matriculation_number"`

	// Program - программа студента (1:1, не разделяется с другими студентами).
	Program Program `json:"program"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrStudentNotFound - студент с таким номером не найден.
	ErrStudentNotFound = shared.ErrStudentNotFound

	// ErrStudentNotLoaded - движок прогресса вызван без загруженного студента.
	ErrStudentNotLoaded = shared.ErrStudentNotLoaded

	// ErrInvalidTarget - отрицательный плановый семестр или число ECTS.
	ErrInvalidTarget = shared.ErrInvalidTarget

	// ErrInvalidMatriculation - пустой матрикульный номер.
	ErrInvalidMatriculation = shared.ErrInvalidMatriculation

	// ErrInvalidCredits - неположительное количество кредитов.
	ErrInvalidCredits = shared.ErrInvalidCredits

	// ErrInvalidSemester - неположительный номер семестра.
	ErrInvalidSemester = shared.ErrInvalidSemester

	// ErrDuplicateSemester - номер семестра уже используется в программе.
	ErrDuplicateSemester = shared.ErrDuplicateSemester

	// ErrInvalidExamStatus - неизвестный статус экзамена.
	ErrInvalidExamStatus = shared.ErrInvalidExamStatus
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewStudentParams содержит параметры для создания студента.
type NewStudentParams struct {
	Name                string
	MatriculationNumber string
	Program             Program
}

// NewStudent создаёт студента и проверяет весь агрегат.
func NewStudent(params NewStudentParams) (*Student, error) {
	id, err := shared.NewMatriculationNumber(params.MatriculationNumber)
	if err != nil {
		return nil, err
	}

	s := &Student{
		Name:                strings.TrimSpace(params.Name),
		MatriculationNumber: id,
		Program:             params.Program,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate проверяет структурные инварианты агрегата.
// Согласованность оценки и статуса экзамена не проверяется.
func (s *Student) Validate() error {
	if !s.MatriculationNumber.IsValid() {
		return ErrInvalidMatriculation
	}
	if s.Name == "" {
		return shared.ErrEmptyStudentName
	}
	return s.Program.Validate()
}

// Validate проверяет программу, её семестры и модули.
func (p Program) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.ErrEmptyProgramName
	}

	seen := make(map[int]struct{}, len(p.Semesters))
	for _, sem := range p.Semesters {
		if sem.Number <= 0 {
			return ErrInvalidSemester
		}
		if _, dup := seen[sem.Number]; dup {
			return ErrDuplicateSemester
		}
		seen[sem.Number] = struct{}{}

		for _, m := range sem.Modules {
			if err := m.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// Validate проверяет модуль, его результат и события.
func (m Module) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return shared.ErrEmptyModuleTitle
	}
	if !m.Credits.IsValid() {
		return ErrInvalidCredits
	}
	if m.Result != nil && !m.Result.Status.IsValid() {
		return ErrInvalidExamStatus
	}
	for _, a := range m.Appointments {
		if strings.TrimSpace(a.Title) == "" || a.Date.IsZero() {
			return shared.ErrEmptyAppointment
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COPYING
// ══════════════════════════════════════════════════════════════════════════════

// Clone возвращает глубокую копию агрегата.
// Репозитории отдают копии, чтобы ни одно поддерево не принадлежало двум владельцам.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}

	c := &Student{
		Name:                s.Name,
		MatriculationNumber: s.MatriculationNumber,
		Program:             Program{Name: s.Program.Name},
	}

	if s.Program.Semesters != nil {
		c.Program.Semesters = make([]Semester, len(s.Program.Semesters))
	}
	for i, sem := range s.Program.Semesters {
		c.Program.Semesters[i] = Semester{Number: sem.Number}
		if sem.Modules != nil {
			c.Program.Semesters[i].Modules = make([]Module, len(sem.Modules))
		}
		for j, m := range sem.Modules {
			c.Program.Semesters[i].Modules[j] = m.clone()
		}
	}

	return c
}

func (m Module) clone() Module {
	c := Module{Title: m.Title, Credits: m.Credits}

	if m.Result != nil {
		r := &ExamResult{Status: m.Result.Status}
		if m.Result.Grade != nil {
			g := *m.Result.Grade
			r.Grade = &g
		}
		c.Result = r
	}

	if m.Appointments != nil {
		c.Appointments = make([]Appointment, len(m.Appointments))
		copy(c.Appointments, m.Appointments)
	}

	return c
}
