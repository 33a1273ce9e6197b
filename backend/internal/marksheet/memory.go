package marksheet

import (
	"context"
	"sort"
	"sync"
	"time"

	"marksportal/backend/internal/shared"
)

// MemoryStore keeps the directory and marksheets in process memory. It
// implements both Store and Directory and is used by tests and by the marks
// service when STORE_BACKEND=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	students []shared.Student
	subjects []shared.Subject
	faculty  map[string]shared.FacultyProfile // keyed by user ID
	entries  map[pairKey]shared.MarksheetEntry
}

type pairKey struct {
	studentID string
	subjectID string
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ Directory = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		faculty: make(map[string]shared.FacultyProfile),
		entries: make(map[pairKey]shared.MarksheetEntry),
	}
}

// AddStudents appends students to the directory.
func (m *MemoryStore) AddStudents(students ...shared.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = append(m.students, students...)
}

// AddSubjects appends subjects to the directory.
func (m *MemoryStore) AddSubjects(subjects ...shared.Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subjects...)
}

// PutFaculty stores or replaces a faculty profile.
func (m *MemoryStore) PutFaculty(profile shared.FacultyProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faculty[profile.UserID] = profile
}

func (m *MemoryStore) ListStudents(ctx context.Context) ([]shared.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]shared.Student(nil), m.students...), nil
}

func (m *MemoryStore) ListSubjects(ctx context.Context) ([]shared.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]shared.Subject(nil), m.subjects...), nil
}

func (m *MemoryStore) FacultyByUserID(ctx context.Context, userID string) (shared.FacultyProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.faculty[userID]
	if !ok {
		return shared.FacultyProfile{}, ErrFacultyNotFound
	}
	return profile, nil
}

func (m *MemoryStore) StudentByUserID(ctx context.Context, userID string) (shared.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if userID != "" && s.UserID == userID {
			return s, nil
		}
	}
	return shared.Student{}, ErrStudentNotFound
}

func (m *MemoryStore) FindByStudentAndSubject(ctx context.Context, studentID, subjectID string) (shared.MarksheetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[pairKey{studentID, subjectID}]
	if !ok {
		return shared.MarksheetEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, entry shared.MarksheetEntry) (shared.MarksheetEntry, error) {
	if err := ctx.Err(); err != nil {
		return shared.MarksheetEntry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{entry.StudentID, entry.SubjectID}
	now := time.Now().UTC()

	if existing, ok := m.entries[key]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		if entry.ID == "" {
			entry.ID = shared.GenerateID("ms")
		}
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	m.entries[key] = entry
	return entry, nil
}

// ListByStudent returns the student's entries ordered by subject code.
func (m *MemoryStore) ListByStudent(ctx context.Context, studentID string) ([]shared.MarksheetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.MarksheetEntry
	for key, entry := range m.entries {
		if key.studentID == studentID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectCode < out[j].SubjectCode })
	return out, nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
