package student

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM BUILDER
// Собирает агрегат один раз при загрузке данных. После Build дерево
// больше не изменяется.
// ══════════════════════════════════════════════════════════════════════════════

// ProgramBuilder пошагово собирает программу с семестрами и модулями.
type ProgramBuilder struct {
	program Program
	index   map[int]int // номер семестра -> позиция в program.Semesters
	err     error
}

// NewProgramBuilder создаёт билдер для программы с указанным названием.
func NewProgramBuilder(name string) *ProgramBuilder {
	return &ProgramBuilder{
		program: Program{Name: name},
		index:   make(map[int]int),
	}
}

// Semester добавляет пустой семестр. Повторный номер - ошибка сборки.
func (b *ProgramBuilder) Semester(number int) *ProgramBuilder {
	if b.err != nil {
		return b
	}
	if number <= 0 {
		b.err = ErrInvalidSemester
		return b
	}
	if _, ok := b.index[number]; ok {
		b.err = ErrDuplicateSemester
		return b
	}

	b.index[number] = len(b.program.Semesters)
	b.program.Semesters = append(b.program.Semesters, Semester{Number: number})
	return b
}

// Semesters добавляет семестры from..to включительно.
func (b *ProgramBuilder) Semesters(from, to int) *ProgramBuilder {
	for n := from; n <= to; n++ {
		b.Semester(n)
	}
	return b
}

// Module добавляет модуль в семестр. Отсутствующий семестр создаётся.
func (b *ProgramBuilder) Module(semester int, m Module) *ProgramBuilder {
	if b.err != nil {
		return b
	}
	if _, ok := b.index[semester]; !ok {
		b.Semester(semester)
		if b.err != nil {
			return b
		}
	}

	pos := b.index[semester]
	b.program.Semesters[pos].Modules = append(b.program.Semesters[pos].Modules, m.clone())
	return b
}

// Build проверяет программу и возвращает её.
func (b *ProgramBuilder) Build() (Program, error) {
	if b.err != nil {
		return Program{}, b.err
	}
	if err := b.program.Validate(); err != nil {
		return Program{}, err
	}
	return b.program, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Module helpers
// ──────────────────────────────────────────────────────────────────────────────

// NewModule создаёт модуль без результата экзамена.
func NewModule(title string, credits int, appointments ...Appointment) Module {
	return Module{
		Title:        title,
		Credits:      ECTS(credits),
		Appointments: appointments,
	}
}

// WithResult возвращает копию модуля с результатом экзамена.
func (m Module) WithResult(status ExamStatus, grade *float64) Module {
	c := m.clone()
	c.Result = &ExamResult{Status: status}
	if grade != nil {
		g := *grade
		c.Result.Grade = &g
	}
	return c
}

// Graded возвращает копию модуля со сданным экзаменом и оценкой.
func (m Module) Graded(grade float64) Module {
	return m.WithResult(ExamStatusPassed, &grade)
}

// NewAppointment создаёт событие на календарный день.
func NewAppointment(title string, year int, month time.Month, day int) Appointment {
	return Appointment{
		Title: title,
		Date:  time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
}
