package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository and student.Writer for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// Compile-time interface checks.
var (
	_ student.Repository = (*StudentRepository)(nil)
	_ student.Writer     = (*StudentRepository)(nil)
)

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Read
// ─────────────────────────────────────────────────────────────────────────────

// FindByMatriculation loads the whole aggregate inside one read-only
// transaction, so the record is never a mix of two saves.
func (r *StudentRepository) FindByMatriculation(ctx context.Context, id student.MatriculationNumber) (*student.Student, error) {
	var result *student.Student

	err := r.conn.WithTx(ctx, ReadOnlyTxOptions(), func(tx pgx.Tx) error {
		s, studentID, err := r.loadStudent(ctx, tx, id)
		if err != nil {
			return err
		}

		semesters, err := r.loadSemesters(ctx, tx, studentID)
		if err != nil {
			return err
		}

		s.Program.Semesters = semesters
		result = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *StudentRepository) loadStudent(ctx context.Context, q Querier, id student.MatriculationNumber) (*student.Student, string, error) {
	query := `
		SELECT id::text, matriculation_number, name, program_name
		FROM students
		WHERE matriculation_number = $1
	`

	var (
		s         student.Student
		studentID string
		matric    string
	)

	err := q.QueryRow(ctx, query, id.String()).Scan(&studentID, &matric, &s.Name, &s.Program.Name)
	if IsNoRows(err) {
		return nil, "", student.ErrStudentNotFound
	}
	if err != nil {
		return nil, "", wrapQueryError("FindByMatriculation", err)
	}

	s.MatriculationNumber = student.MatriculationNumber(matric)
	return &s, studentID, nil
}

// loadSemesters reads the program tree in one ordered LEFT JOIN and folds
// the flat rows back into semesters, modules and appointments.
func (r *StudentRepository) loadSemesters(ctx context.Context, q Querier, studentID string) ([]student.Semester, error) {
	query := `
		SELECT s.number,
		       m.id::text, m.title, m.credits, m.exam_status, m.grade,
		       a.title, a.date
		FROM semesters s
		LEFT JOIN modules m ON m.semester_id = s.id
		LEFT JOIN appointments a ON a.module_id = m.id
		WHERE s.student_id = $1
		ORDER BY s.position, m.position, a.position
	`

	rows, err := q.Query(ctx, query, studentID)
	if err != nil {
		return nil, wrapQueryError("FindByMatriculation", err)
	}
	defer rows.Close()

	var (
		semesters  []student.Semester
		lastNumber = -1
		lastModule string
	)

	for rows.Next() {
		var (
			number      int
			moduleID    *string
			moduleTitle *string
			credits     *int
			examStatus  *string
			grade       *float64
			apptTitle   *string
			apptDate    *time.Time
		)

		if err := rows.Scan(&number, &moduleID, &moduleTitle, &credits, &examStatus, &grade, &apptTitle, &apptDate); err != nil {
			return nil, fmt.Errorf("failed to scan program row: %w", err)
		}

		if number != lastNumber {
			semesters = append(semesters, student.Semester{Number: number})
			lastNumber = number
			lastModule = ""
		}
		sem := &semesters[len(semesters)-1]

		if moduleID == nil {
			continue
		}

		if *moduleID != lastModule {
			m := student.Module{Title: *moduleTitle, Credits: student.ECTS(*credits)}
			if examStatus != nil {
				m.Result = &student.ExamResult{Status: student.ExamStatus(*examStatus), Grade: grade}
			}
			sem.Modules = append(sem.Modules, m)
			lastModule = *moduleID
		}

		if apptTitle != nil && apptDate != nil {
			mod := &sem.Modules[len(sem.Modules)-1]
			mod.Appointments = append(mod.Appointments, student.Appointment{
				Title: *apptTitle,
				Date:  dateOnly(*apptDate),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, wrapQueryError("FindByMatriculation", err)
	}

	return semesters, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Write
// ─────────────────────────────────────────────────────────────────────────────

// Save replaces the stored record of the student with s. The student row is
// upserted by matriculation number; the program tree is rewritten.
func (r *StudentRepository) Save(ctx context.Context, s *student.Student) error {
	if s == nil {
		return student.ErrStudentNotLoaded
	}
	if err := s.Validate(); err != nil {
		return err
	}

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var studentID string
		err := tx.QueryRow(ctx, `
			INSERT INTO students (id, matriculation_number, name, program_name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (matriculation_number) DO UPDATE
			SET name = EXCLUDED.name, program_name = EXCLUDED.program_name
			RETURNING id::text
		`, uuid.NewString(), s.MatriculationNumber.String(), s.Name, s.Program.Name).Scan(&studentID)
		if err != nil {
			return fmt.Errorf("failed to upsert student: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM semesters WHERE student_id = $1`, studentID); err != nil {
			return fmt.Errorf("failed to clear program: %w", err)
		}

		batch := programBatch(studentID, s.Program)
		if batch.Len() == 0 {
			return nil
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert program row: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return wrapSaveError(err)
	}
	return nil
}

// programBatch queues inserts parent-first so foreign keys hold at each step.
func programBatch(studentID string, p student.Program) *pgx.Batch {
	batch := &pgx.Batch{}

	for si, sem := range p.Semesters {
		semID := uuid.NewString()
		batch.Queue(`
			INSERT INTO semesters (id, student_id, number, position)
			VALUES ($1, $2, $3, $4)
		`, semID, studentID, sem.Number, si)

		for mi, m := range sem.Modules {
			modID := uuid.NewString()

			var status *string
			var grade *float64
			if m.Result != nil {
				st := m.Result.Status.String()
				status = &st
				grade = m.Result.Grade
			}

			batch.Queue(`
				INSERT INTO modules (id, semester_id, title, credits, exam_status, grade, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, modID, semID, m.Title, m.Credits.Int(), status, grade, mi)

			for ai, a := range m.Appointments {
				batch.Queue(`
					INSERT INTO appointments (id, module_id, title, date, position)
					VALUES ($1, $2, $3, $4, $5)
				`, uuid.NewString(), modID, a.Title, dateOnly(a.Date), ai)
			}
		}
	}

	return batch
}

// Count returns the number of stored students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.Pool().QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&n); err != nil {
		return 0, wrapQueryError("Count", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// dateOnly normalizes a calendar day to midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wrapSaveError separates rows the schema refuses from an unavailable database.
// Constraint violations are permanent; retrying the write cannot help.
func wrapSaveError(err error) error {
	if IsCheckViolation(err) || IsUniqueViolation(err) {
		return shared.WrapError("postgres", "Save", shared.ErrInvalidEntity, "constraint violated", err)
	}
	return shared.WrapError("postgres", "Save", shared.ErrServiceUnavailable, "write failed", err)
}

func wrapQueryError(op string, err error) error {
	return shared.WrapError("postgres", op, shared.ErrServiceUnavailable, "query failed", err)
}
