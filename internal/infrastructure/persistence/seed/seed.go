// Package seed loads student records from a YAML dataset.
// The default dataset is embedded into the binary; a file path can override it.
// Documents are validated with struct tags and converted into domain aggregates
// through student.ProgramBuilder, so a loaded record is always complete.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/studyhub/study-dashboard/internal/domain/shared"
	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/pkg/retry"
	"github.com/studyhub/study-dashboard/pkg/timeutil"
)

//go:embed dataset.yaml
var defaultDataset []byte

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// File is the root of a dataset document.
type File struct {
	Students []StudentDoc `yaml:"students" validate:"required,min=1,dive"`
}

// StudentDoc describes one student and their program.
type StudentDoc struct {
	Name          string     `yaml:"name" validate:"required"`
	Matriculation string     `yaml:"matriculation" validate:"required"`
	Program       ProgramDoc `yaml:"program" validate:"required"`
}

// ProgramDoc describes a study program.
type ProgramDoc struct {
	Name      string        `yaml:"name" validate:"required"`
	Semesters []SemesterDoc `yaml:"semesters" validate:"dive"`
}

// SemesterDoc describes a numbered semester.
type SemesterDoc struct {
	Number  int         `yaml:"number" validate:"gt=0"`
	Modules []ModuleDoc `yaml:"modules" validate:"dive"`
}

// ModuleDoc describes a module. Status and grade are both optional; a module
// with neither has no exam result.
type ModuleDoc struct {
	Title        string           `yaml:"title" validate:"required"`
	Credits      int              `yaml:"credits" validate:"gt=0"`
	Status       string           `yaml:"status"`
	Grade        *float64         `yaml:"grade" validate:"omitnil,gte=0"`
	Appointments []AppointmentDoc `yaml:"appointments" validate:"dive"`
}

// AppointmentDoc describes a dated module event.
type AppointmentDoc struct {
	Title string `yaml:"title" validate:"required"`
	Date  string `yaml:"date" validate:"required,datetime=2006-01-02"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LOADING
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the students of the embedded dataset.
func Default() ([]*student.Student, error) {
	return Parse(defaultDataset)
}

// DefaultBytes returns a copy of the embedded dataset document.
func DefaultBytes() []byte {
	return bytes.Clone(defaultDataset)
}

// LoadFile reads a dataset from path. An empty path loads the embedded dataset.
func LoadFile(path string) ([]*student.Student, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes, validates and converts a dataset document.
func Parse(data []byte) ([]*student.Student, error) {
	var file File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, invalid("decode yaml", err)
	}

	if err := validate.Struct(file); err != nil {
		return nil, invalid("validate", describe(err))
	}

	students := make([]*student.Student, 0, len(file.Students))
	seen := make(map[string]struct{}, len(file.Students))

	for i, doc := range file.Students {
		st, err := doc.toDomain()
		if err != nil {
			return nil, invalid(fmt.Sprintf("students[%d]", i), err)
		}

		key := st.MatriculationNumber.String()
		if _, dup := seen[key]; dup {
			return nil, invalid(fmt.Sprintf("students[%d]", i), fmt.Errorf("duplicate matriculation number %q", key))
		}
		seen[key] = struct{}{}

		students = append(students, st)
	}

	return students, nil
}

// Seed writes all students through w. Returns the number written.
// Each write is retried with retry.DatabaseRetrier; invalid records are not.
func Seed(ctx context.Context, w student.Writer, students []*student.Student) (int, error) {
	r := retry.DatabaseRetrier()

	for i, st := range students {
		err := r.Do(ctx, func(ctx context.Context) error {
			err := w.Save(ctx, st)
			if shared.IsValidation(err) || shared.IsPrecondition(err) {
				return retry.Permanent(err)
			}
			return err
		})
		if err != nil {
			return i, fmt.Errorf("failed to seed student %s: %w", st.MatriculationNumber, err)
		}
	}
	return len(students), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

func (d StudentDoc) toDomain() (*student.Student, error) {
	b := student.NewProgramBuilder(d.Program.Name)

	for _, sem := range d.Program.Semesters {
		b.Semester(sem.Number)
		for _, md := range sem.Modules {
			m, err := md.toDomain()
			if err != nil {
				return nil, fmt.Errorf("semester %d, module %q: %w", sem.Number, md.Title, err)
			}
			b.Module(sem.Number, m)
		}
	}

	program, err := b.Build()
	if err != nil {
		return nil, err
	}

	return student.NewStudent(student.NewStudentParams{
		Name:                d.Name,
		MatriculationNumber: d.Matriculation,
		Program:             program,
	})
}

func (d ModuleDoc) toDomain() (student.Module, error) {
	var appointments []student.Appointment
	for _, a := range d.Appointments {
		date, err := timeutil.ParseDate(a.Date)
		if err != nil {
			return student.Module{}, err
		}
		appointments = append(appointments, student.Appointment{Title: a.Title, Date: date})
	}

	m := student.NewModule(d.Title, d.Credits, appointments...)
	if strings.TrimSpace(d.Status) == "" && d.Grade == nil {
		return m, nil
	}

	status, err := student.ParseExamStatus(d.Status)
	if err != nil {
		return student.Module{}, err
	}

	return m.WithResult(status, d.Grade), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

func invalid(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", shared.ErrSeedInvalid, stage, err)
}

// describe flattens validator errors into "Field: tag" pairs.
func describe(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
