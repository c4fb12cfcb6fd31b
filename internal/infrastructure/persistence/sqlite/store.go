// Package sqlite implements a file-backed student store on SQLite.
// It uses the same normalized layout as the PostgreSQL backend and suits
// single-node deployments without a database server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/pkg/timeutil"
)

// Store implements student.Repository and student.Writer.
type Store struct {
	db   *sql.DB
	path string
}

// Compile-time interface checks.
var (
	_ student.Repository = (*Store)(nil)
	_ student.Writer     = (*Store)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite db: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindByMatriculation loads the whole aggregate in one read transaction.
func (s *Store) FindByMatriculation(ctx context.Context, id student.MatriculationNumber) (*student.Student, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, wrapQueryError("FindByMatriculation", err)
	}
	defer tx.Rollback()

	var (
		st        student.Student
		studentID string
		matric    string
	)

	err = tx.QueryRowContext(ctx,
		`SELECT id, matriculation_number, name, program_name FROM students WHERE matriculation_number = ?`,
		id.String(),
	).Scan(&studentID, &matric, &st.Name, &st.Program.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, student.ErrStudentNotFound
	}
	if err != nil {
		return nil, wrapQueryError("FindByMatriculation", err)
	}
	st.MatriculationNumber = student.MatriculationNumber(matric)

	semesters, err := loadSemesters(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	st.Program.Semesters = semesters

	return &st, nil
}

func loadSemesters(ctx context.Context, tx *sql.Tx, studentID string) ([]student.Semester, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT s.number,
		       m.id, m.title, m.credits, m.exam_status, m.grade,
		       a.title, a.date
		FROM semesters s
		LEFT JOIN modules m ON m.semester_id = s.id
		LEFT JOIN appointments a ON a.module_id = m.id
		WHERE s.student_id = ?
		ORDER BY s.position, m.position, a.position
	`, studentID)
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
			moduleID    sql.NullString
			moduleTitle sql.NullString
			credits     sql.NullInt64
			examStatus  sql.NullString
			grade       sql.NullFloat64
			apptTitle   sql.NullString
			apptDate    sql.NullString
		)

		if err := rows.Scan(&number, &moduleID, &moduleTitle, &credits, &examStatus, &grade, &apptTitle, &apptDate); err != nil {
			return nil, fmt.Errorf("scan program row: %w", err)
		}

		if number != lastNumber {
			semesters = append(semesters, student.Semester{Number: number})
			lastNumber = number
			lastModule = ""
		}
		sem := &semesters[len(semesters)-1]

		if !moduleID.Valid {
			continue
		}

		if moduleID.String != lastModule {
			m := student.Module{Title: moduleTitle.String, Credits: student.ECTS(credits.Int64)}
			if examStatus.Valid {
				m.Result = &student.ExamResult{Status: student.ExamStatus(examStatus.String)}
				if grade.Valid {
					g := grade.Float64
					m.Result.Grade = &g
				}
			}
			sem.Modules = append(sem.Modules, m)
			lastModule = moduleID.String
		}

		if apptTitle.Valid && apptDate.Valid {
			date, err := timeutil.ParseDate(apptDate.String)
			if err != nil {
				return nil, fmt.Errorf("scan appointment date: %w", err)
			}
			mod := &sem.Modules[len(sem.Modules)-1]
			mod.Appointments = append(mod.Appointments, student.Appointment{Title: apptTitle.String, Date: date})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, wrapQueryError("FindByMatriculation", err)
	}

	return semesters, nil
}

// Save replaces the stored record of the student in one transaction.
func (s *Store) Save(ctx context.Context, st *student.Student) error {
	if st == nil {
		return student.ErrStudentNotLoaded
	}
	if err := st.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var studentID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO students (id, matriculation_number, name, program_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (matriculation_number) DO UPDATE
		SET name = excluded.name, program_name = excluded.program_name, updated_at = datetime('now')
		RETURNING id
	`, uuid.NewString(), st.MatriculationNumber.String(), st.Name, st.Program.Name).Scan(&studentID)
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM semesters WHERE student_id = ?`, studentID); err != nil {
		return fmt.Errorf("clear program: %w", err)
	}

	for si, sem := range st.Program.Semesters {
		semID := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO semesters (id, student_id, number, position) VALUES (?, ?, ?, ?)`,
			semID, studentID, sem.Number, si,
		); err != nil {
			return fmt.Errorf("insert semester %d: %w", sem.Number, err)
		}

		for mi, m := range sem.Modules {
			modID := uuid.NewString()

			var status sql.NullString
			var grade sql.NullFloat64
			if m.Result != nil {
				status = sql.NullString{String: m.Result.Status.String(), Valid: true}
				if m.Result.Grade != nil {
					grade = sql.NullFloat64{Float64: *m.Result.Grade, Valid: true}
				}
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO modules (id, semester_id, title, credits, exam_status, grade, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				modID, semID, m.Title, m.Credits.Int(), status, grade, mi,
			); err != nil {
				return fmt.Errorf("insert module %q: %w", m.Title, err)
			}

			for ai, a := range m.Appointments {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO appointments (id, module_id, title, date, position) VALUES (?, ?, ?, ?, ?)`,
					uuid.NewString(), modID, a.Title, timeutil.FormatISO(a.Date), ai,
				); err != nil {
					return fmt.Errorf("insert appointment %q: %w", a.Title, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored students.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM students`).Scan(&n); err != nil {
		return 0, wrapQueryError("Count", err)
	}
	return n, nil
}

func wrapQueryError(op string, err error) error {
	return shared.WrapError("sqlite", op, shared.ErrServiceUnavailable, "query failed", err)
}
