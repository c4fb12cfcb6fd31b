package student

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

//go:generate mockgen -source=repository.go -destination=mocks/mocks.go -package=mocks

// Repository ищет студентов по матрикульному номеру.
type Repository interface {
	// FindByMatriculation возвращает полностью собранный агрегат студента.
	// Возвращает ErrStudentNotFound, если студента нет. Частично заполненный
	// агрегат не возвращается никогда.
	FindByMatriculation(ctx context.Context, id MatriculationNumber) (*Student, error)
}

// Writer сохраняет агрегаты. Используется для заполнения хранилищ из набора данных.
type Writer interface {
	// Save записывает студента целиком, заменяя предыдущую версию.
	Save(ctx context.Context, s *Student) error
}

// Cache определяет интерфейс кеширования агрегатов студентов.
type Cache interface {
	// Get возвращает студента из кеша.
	// Возвращает ErrStudentNotFound при промахе.
	Get(ctx context.Context, id MatriculationNumber) (*Student, error)

	// Set сохраняет студента в кеш.
	Set(ctx context.Context, s *Student, ttl time.Duration) error

	// Invalidate удаляет студента из кеша.
	Invalidate(ctx context.Context, id MatriculationNumber) error
}
