// Package memory implements student.Repository over an in-process map.
// It is the default backend: the dataset is small and read-only after startup.
package memory

import (
	"context"
	"sync"

	"github.com/studyhub/study-dashboard/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY STUDENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository stores aggregates by matriculation number.
// Every read and write copies the aggregate, so callers never share a subtree
// with the store.
type StudentRepository struct {
	mu       sync.RWMutex
	students map[student.MatriculationNumber]*student.Student
}

// Compile-time interface checks.
var (
	_ student.Repository = (*StudentRepository)(nil)
	_ student.Writer     = (*StudentRepository)(nil)
)

// NewStudentRepository creates a repository preloaded with students.
// Later entries replace earlier ones with the same matriculation number.
func NewStudentRepository(students ...*student.Student) *StudentRepository {
	r := &StudentRepository{
		students: make(map[student.MatriculationNumber]*student.Student, len(students)),
	}
	for _, s := range students {
		if s != nil {
			r.students[s.MatriculationNumber] = s.Clone()
		}
	}
	return r
}

// FindByMatriculation returns a copy of the student or ErrStudentNotFound.
func (r *StudentRepository) FindByMatriculation(ctx context.Context, id student.MatriculationNumber) (*student.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	s, ok := r.students[id]
	r.mu.RUnlock()

	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s.Clone(), nil
}

// Save validates and stores a copy of the student.
func (r *StudentRepository) Save(ctx context.Context, s *student.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return student.ErrStudentNotLoaded
	}
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.students[s.MatriculationNumber] = s.Clone()
	r.mu.Unlock()

	return nil
}

// Count returns the number of stored students.
func (r *StudentRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.students)
}
