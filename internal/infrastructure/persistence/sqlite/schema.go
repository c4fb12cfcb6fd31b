package sqlite

// Schema mirrors the PostgreSQL tables. Dates are stored as YYYY-MM-DD text.
const Schema = `
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    matriculation_number TEXT NOT NULL UNIQUE CHECK (length(trim(matriculation_number)) > 0),
    name TEXT NOT NULL,
    program_name TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS semesters (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    number INTEGER NOT NULL CHECK (number > 0),
    position INTEGER NOT NULL,
    UNIQUE (student_id, number)
);

CREATE TABLE IF NOT EXISTS modules (
    id TEXT PRIMARY KEY,
    semester_id TEXT NOT NULL REFERENCES semesters(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    credits INTEGER NOT NULL CHECK (credits > 0),
    exam_status TEXT CHECK (exam_status IS NULL OR exam_status IN ('open', 'passed', 'failed')),
    grade REAL,
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS appointments (
    id TEXT PRIMARY KEY,
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_semesters_student ON semesters(student_id, position);
CREATE INDEX IF NOT EXISTS idx_modules_semester ON modules(semester_id, position);
CREATE INDEX IF NOT EXISTS idx_appointments_module ON appointments(module_id, position);
`
