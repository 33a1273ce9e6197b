package marksheet

import (
	"context"

	"marksportal/backend/internal/shared"
)

// Store persists marksheet entries. There is at most one entry per
// (student, subject); Upsert replaces the scores of an existing entry and
// keeps its ID and creation time. Concurrent upserts to the same pair are
// last-write-wins.
type Store interface {
	FindByStudentAndSubject(ctx context.Context, studentID, subjectID string) (shared.MarksheetEntry, error)
	Upsert(ctx context.Context, entry shared.MarksheetEntry) (shared.MarksheetEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]shared.MarksheetEntry, error)
}

// Directory is the read-only view of students, subjects and faculty profiles.
type Directory interface {
	ListStudents(ctx context.Context) ([]shared.Student, error)
	ListSubjects(ctx context.Context) ([]shared.Subject, error)
	FacultyByUserID(ctx context.Context, userID string) (shared.FacultyProfile, error)
	StudentByUserID(ctx context.Context, userID string) (shared.Student, error)
}
