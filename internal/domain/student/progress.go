package student

import (
	"fmt"
	"sort"
	"time"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS ENGINE
// Чистые вычисления поверх загруженного агрегата: текущий семестр, кредиты,
// средний балл, список оценок, текущие модули и ближайшие события.
// Ни одна операция не изменяет студента.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultTargetSemester - плановая длительность бакалавриата в семестрах.
	DefaultTargetSemester = 6

	// DefaultTargetCredits - плановое количество ECTS для бакалавриата.
	DefaultTargetCredits = 180

	// defaultCurrentSemester - текущий семестр, если ни в одном нет модулей.
	defaultCurrentSemester = 1
)

// GradeEntry - строка списка оценок.
type GradeEntry struct {
	ModuleTitle string  `json:"module_title"`
	Grade       float64 `json:"grade"`
}

// UpcomingAppointment - предстоящее событие с подписью "<событие> (<модуль>)".
type UpcomingAppointment struct {
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
}

// Progress вычисляет производные значения дашборда для одного студента.
type Progress struct {
	student *Student
}

// NewProgress создаёт движок для загруженного студента.
// Возвращает ErrStudentNotLoaded, если студент не передан.
func NewProgress(s *Student) (*Progress, error) {
	if s == nil {
		return nil, ErrStudentNotLoaded
	}
	return &Progress{student: s}, nil
}

// Student возвращает студента, для которого построен движок.
func (p *Progress) Student() *Student {
	return p.require()
}

// require возвращает студента или паникует: вызов без загруженного студента -
// нарушение контракта вызывающим кодом, а не восстанавливаемая ошибка.
func (p *Progress) require() *Student {
	if p == nil || p.student == nil {
		panic(ErrStudentNotLoaded)
	}
	return p.student
}

// CurrentSemesterNumber возвращает максимальный номер семестра, в котором есть
// хотя бы один модуль. Если модулей нет нигде - 1.
func (p *Progress) CurrentSemesterNumber() int {
	current := 0
	for _, sem := range p.require().Program.Semesters {
		if sem.HasModules() && sem.Number > current {
			current = sem.Number
		}
	}
	if current == 0 {
		return defaultCurrentSemester
	}
	return current
}

// SemesterProgress возвращает пару (текущий семестр, целевой семестр).
// Не проверяет, что цель не меньше текущего семестра.
func (p *Progress) SemesterProgress(target int) (current, goal int) {
	return p.CurrentSemesterNumber(), target
}

// CreditProgress возвращает пару (заработанные ECTS, цель).
// Засчитываются только модули со статусом экзамена "passed".
func (p *Progress) CreditProgress(target int) (earned, goal int) {
	for _, sem := range p.require().Program.Semesters {
		for _, m := range sem.Modules {
			if m.IsPassed() {
				earned += m.Credits.Int()
			}
		}
	}
	return earned, target
}

// GradeAverage возвращает средний балл по всем модулям с выставленной оценкой,
// округлённый до двух знаков. Статус экзамена не учитывается.
// Второй результат false, если оценок нет.
func (p *Progress) GradeAverage() (float64, bool) {
	entries := p.GradeList()
	grades := make([]float64, 0, len(entries))
	for _, e := range entries {
		grades = append(grades, e.Grade)
	}
	return shared.AverageGrade(grades)
}

// GradeList возвращает оценки в порядке семестров, затем модулей.
func (p *Progress) GradeList() []GradeEntry {
	entries := []GradeEntry{}
	for _, sem := range p.require().Program.Semesters {
		for _, m := range sem.Modules {
			if g, ok := m.Grade(); ok {
				entries = append(entries, GradeEntry{ModuleTitle: m.Title, Grade: g})
			}
		}
	}
	return entries
}

// CurrentModules возвращает названия модулей текущего семестра.
func (p *Progress) CurrentModules() []string {
	titles := []string{}
	sem, ok := p.require().Program.Semester(p.CurrentSemesterNumber())
	if !ok {
		return titles
	}
	for _, m := range sem.Modules {
		titles = append(titles, m.Title)
	}
	return titles
}

// UpcomingAppointments возвращает события с датой не раньше ref, отсортированные
// по возрастанию даты. Сравнение идёт по календарным дням; при равных датах
// сохраняется порядок обхода.
func (p *Progress) UpcomingAppointments(ref time.Time) []UpcomingAppointment {
	from := calendarDay(ref)
	out := []UpcomingAppointment{}

	for _, sem := range p.require().Program.Semesters {
		for _, m := range sem.Modules {
			for _, a := range m.Appointments {
				if calendarDay(a.Date).Before(from) {
					continue
				}
				out = append(out, UpcomingAppointment{
					Label: fmt.Sprintf("%s (%s)", a.Title, m.Title),
					Date:  a.Date,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return calendarDay(out[i].Date).Before(calendarDay(out[j].Date))
	})

	return out
}

// calendarDay берёт год, месяц и день в зоне самого t и строит из них
// полночь UTC.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
