// Package student содержит доменную модель учебной карточки студента.
//
// Это ядро системы "Study Dashboard". Пакет определяет:
//
//   - Сущности: Student, Program, Semester, Module, ExamResult, Appointment
//   - Value Objects: MatriculationNumber, ECTS, ExamStatus
//   - Движок прогресса: Progress
//   - Интерфейсы репозиториев: Repository, Writer, Cache
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - пакет определяет интерфейсы, реализации живут в infrastructure
//  3. Агрегат - строгое дерево: у каждой сущности ровно один владелец
//
// # Построение агрегата
//
//	program, err := NewProgramBuilder("Angewandte KI B.Sc.").
//	    Semesters(1, 6).
//	    Module(3, NewModule("Computer Vision", 5,
//	        NewAppointment("Klausur", 2025, time.July, 1)).Graded(2.0)).
//	    Module(3, NewModule("Statistik & Wahrscheinlichkeit", 5)).
//	    Build()
//
//	st, err := NewStudent(NewStudentParams{
//	    Name:                "Julian Hinze",
//	    MatriculationNumber: "IU14102835",
//	    Program:             program,
//	})
//
// # Движок прогресса
//
// Progress вычисляет значения дашборда и ничего не изменяет:
//
//	p, err := NewProgress(st)
//	current, target := p.SemesterProgress(DefaultTargetSemester)
//	earned, goal := p.CreditProgress(DefaultTargetCredits)
//	avg, ok := p.GradeAverage()
//	upcoming := p.UpcomingAppointments(time.Now())
//
// Вызов операций у Progress без студента - нарушение контракта: метод
// паникует с ErrStudentNotLoaded.
//
// # Поиск студента
//
// Repository.FindByMatriculation возвращает ErrStudentNotFound для
// неизвестного номера. Это ожидаемый исход, а не сбой: слой приложения
// превращает его в "студент не найден" для пользователя.
package student
