package marksheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/shared"
)

// Service ties the resolver and the grade engine to a directory and a
// marksheet store. It holds no mutable state of its own.
type Service struct {
	store Store
	dir   Directory
}

// NewService creates a new Service instance
func NewService(store Store, dir Directory) *Service {
	return &Service{store: store, dir: dir}
}

// SearchResult is what a faculty member sees after searching for a student.
type SearchResult struct {
	Student          shared.Student
	AssignedSubjects []shared.Subject
	Prefill          map[string]grading.RawScores
}

// SaveInput is a single score submission.
type SaveInput struct {
	RollNo      string         `json:"roll_no"`
	RollNumber  string         `json:"roll_number"`
	Email       string         `json:"email" validate:"omitempty,email"`
	SubjectCode string         `json:"subject_code" validate:"required"`
	Scores      grading.Scores `json:"scores"`
}

// SubjectScores is one subject of a batch submission.
type SubjectScores struct {
	SubjectCode string         `json:"subject_code" validate:"required"`
	Scores      grading.Scores `json:"scores"`
}

// SubjectResult reports the outcome of saving one subject in a batch.
type SubjectResult struct {
	SubjectCode string
	Entry       shared.MarksheetEntry
	Err         error
}

// BatchResult is the outcome of a batch save. Saved subjects stay saved
// even when later subjects fail.
type BatchResult struct {
	Student shared.Student
	Results []SubjectResult
	Saved   int
	Failed  int
}

// Marksheet is a student with all of their marks rows.
type Marksheet struct {
	Student shared.Student
	Rows    []shared.MarkRow
}

// SearchStudent resolves query to a student in the faculty member's
// department and prefills a score editor for each assigned subject.
func (s *Service) SearchStudent(ctx context.Context, facultyUserID, query string) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, requiredField("query")
	}

	faculty, err := s.dir.FacultyByUserID(ctx, facultyUserID)
	if err != nil {
		return SearchResult{}, err
	}

	students, err := s.dir.ListStudents(ctx)
	if err != nil {
		return SearchResult{}, fmt.Errorf("list students: %w", err)
	}

	student, err := FindStudent(query, faculty, students)
	if err != nil {
		return SearchResult{}, err
	}

	entries, err := s.store.ListByStudent(ctx, student.ID)
	if err != nil {
		return SearchResult{}, fmt.Errorf("list marksheet entries: %w", err)
	}

	subjects, err := s.dir.ListSubjects(ctx)
	if err != nil {
		return SearchResult{}, fmt.Errorf("list subjects: %w", err)
	}

	return SearchResult{
		Student:          student,
		AssignedSubjects: assignedSubjects(faculty, subjects),
		Prefill:          PrefillScores(faculty, entries),
	}, nil
}

// SaveScore validates, authorizes and upserts one subject's scores. The
// student is located by roll number, legacy roll number or email.
func (s *Service) SaveScore(ctx context.Context, facultyUserID string, in SaveInput) (shared.MarksheetEntry, error) {
	if in.RollNo == "" && in.RollNumber == "" && in.Email == "" {
		return shared.MarksheetEntry{}, shared.NewValidationError("invalid submission",
			shared.FieldError{Field: "roll_no", Message: "roll_no, roll_number or email is required"})
	}
	if err := shared.ValidateStruct("invalid submission", in); err != nil {
		return shared.MarksheetEntry{}, err
	}

	faculty, err := s.dir.FacultyByUserID(ctx, facultyUserID)
	if err != nil {
		return shared.MarksheetEntry{}, err
	}

	students, err := s.dir.ListStudents(ctx)
	if err != nil {
		return shared.MarksheetEntry{}, fmt.Errorf("list students: %w", err)
	}

	student, err := FindStudentForSave(in.RollNo, in.RollNumber, in.Email, students)
	if err != nil {
		return shared.MarksheetEntry{}, err
	}

	subjects, err := s.dir.ListSubjects(ctx)
	if err != nil {
		return shared.MarksheetEntry{}, fmt.Errorf("list subjects: %w", err)
	}

	return s.save(ctx, faculty, student, subjects, in.SubjectCode, in.Scores)
}

// SaveScores saves several subjects for one student. The student must be
// visible to the faculty member; each subject is then validated, authorized
// and saved on its own.
func (s *Service) SaveScores(ctx context.Context, facultyUserID, rollNo string, items []SubjectScores) (BatchResult, error) {
	if strings.TrimSpace(rollNo) == "" {
		return BatchResult{}, requiredField("roll_no")
	}
	if len(items) == 0 {
		return BatchResult{}, requiredField("entries")
	}

	faculty, err := s.dir.FacultyByUserID(ctx, facultyUserID)
	if err != nil {
		return BatchResult{}, err
	}

	students, err := s.dir.ListStudents(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list students: %w", err)
	}

	student, err := FindStudentByRollInDepartment(rollNo, faculty, students)
	if err != nil {
		return BatchResult{}, err
	}

	subjects, err := s.dir.ListSubjects(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list subjects: %w", err)
	}

	result := BatchResult{Student: student}
	for _, item := range items {
		res := SubjectResult{SubjectCode: item.SubjectCode}
		if err := shared.ValidateStruct("invalid scores for "+item.SubjectCode, item); err != nil {
			res.Err = err
		} else {
			res.Entry, res.Err = s.save(ctx, faculty, student, subjects, item.SubjectCode, item.Scores)
		}

		if res.Err != nil {
			result.Failed++
		} else {
			result.Saved++
		}
		result.Results = append(result.Results, res)
	}

	return result, nil
}

func (s *Service) save(ctx context.Context, faculty shared.FacultyProfile, student shared.Student, subjects []shared.Subject, code string, scores grading.Scores) (shared.MarksheetEntry, error) {
	// The subject checked for its department is the one written to.
	subject, findErr := FindSubject(code, subjects, false)
	var meta *shared.Subject
	if findErr == nil {
		meta = &subject
	}

	if err := AuthorizeSave(faculty, student, code, meta); err != nil {
		return shared.MarksheetEntry{}, err
	}
	if findErr != nil {
		return shared.MarksheetEntry{}, findErr
	}

	components := scores.Components()
	entry := shared.MarksheetEntry{
		StudentID:   student.ID,
		SubjectID:   subject.ID,
		StudentName: student.Name,
		RollNo:      student.Roll(),
		SubjectName: subject.Name,
		SubjectCode: subject.Code,
		Scores:      components.Scores(),
		Grade:       components.Grade(),
		UpdatedBy:   faculty.UserID,
	}

	saved, err := s.store.Upsert(ctx, entry)
	if err != nil {
		return shared.MarksheetEntry{}, fmt.Errorf("upsert marksheet entry: %w", err)
	}
	return saved, nil
}

// StudentMarksheet returns every entry for the student whose roll number
// matches exactly. Rows are editable when the caller is a faculty member
// assigned to the row's subject.
func (s *Service) StudentMarksheet(ctx context.Context, callerUserID, rollNo string) (Marksheet, error) {
	if rollNo == "" {
		return Marksheet{}, requiredField("roll_no")
	}

	students, err := s.dir.ListStudents(ctx)
	if err != nil {
		return Marksheet{}, fmt.Errorf("list students: %w", err)
	}

	student, err := FindStudentByRoll(rollNo, students)
	if err != nil {
		return Marksheet{}, err
	}

	var faculty *shared.FacultyProfile
	if callerUserID != "" {
		profile, err := s.dir.FacultyByUserID(ctx, callerUserID)
		switch {
		case err == nil:
			faculty = &profile
		case !errors.Is(err, ErrFacultyNotFound):
			return Marksheet{}, err
		}
	}

	return s.marksheetFor(ctx, student, faculty)
}

// LookupMarksheet searches the whole directory by roll number, email or
// exact name and returns the student's marksheet.
func (s *Service) LookupMarksheet(ctx context.Context, query string) (Marksheet, error) {
	if strings.TrimSpace(query) == "" {
		return Marksheet{}, requiredField("query")
	}

	students, err := s.dir.ListStudents(ctx)
	if err != nil {
		return Marksheet{}, fmt.Errorf("list students: %w", err)
	}

	student, err := LookupStudent(query, students)
	if err != nil {
		return Marksheet{}, err
	}

	return s.marksheetFor(ctx, student, nil)
}

// MyMarksheet returns the marksheet of the student linked to userID.
func (s *Service) MyMarksheet(ctx context.Context, userID string) (Marksheet, error) {
	if userID == "" {
		return Marksheet{}, requiredField("user_id")
	}

	student, err := s.dir.StudentByUserID(ctx, userID)
	if err != nil {
		return Marksheet{}, err
	}

	return s.marksheetFor(ctx, student, nil)
}

// FacultyProfile returns the profile of a faculty member together with the
// subject codes they are assigned to.
func (s *Service) FacultyProfile(ctx context.Context, userID string) (shared.FacultyProfile, []string, error) {
	if userID == "" {
		return shared.FacultyProfile{}, nil, requiredField("user_id")
	}

	profile, err := s.dir.FacultyByUserID(ctx, userID)
	if err != nil {
		return shared.FacultyProfile{}, nil, err
	}
	return profile, AssignedSubjectCodes(profile), nil
}

func (s *Service) ListStudents(ctx context.Context) ([]shared.Student, error) {
	return s.dir.ListStudents(ctx)
}

func (s *Service) ListSubjects(ctx context.Context) ([]shared.Subject, error) {
	return s.dir.ListSubjects(ctx)
}

func (s *Service) marksheetFor(ctx context.Context, student shared.Student, faculty *shared.FacultyProfile) (Marksheet, error) {
	entries, err := s.store.ListByStudent(ctx, student.ID)
	if err != nil {
		return Marksheet{}, fmt.Errorf("list marksheet entries: %w", err)
	}

	rows := make([]shared.MarkRow, 0, len(entries))
	for _, e := range entries {
		raw := e.Scores.Raw()
		rows = append(rows, shared.MarkRow{
			MarksheetEntry: e,
			BestOfTwo:      grading.BestOfTwoMid(raw),
			Total:          grading.ComputeTotal(raw),
			Editable:       faculty != nil && IsAssigned(*faculty, e.SubjectCode),
		})
	}
	return Marksheet{Student: student, Rows: rows}, nil
}

// assignedSubjects returns directory rows for the faculty member's codes, in
// assignment order. Codes missing from the directory are returned with only
// the code set.
func assignedSubjects(faculty shared.FacultyProfile, subjects []shared.Subject) []shared.Subject {
	codes := AssignedSubjectCodes(faculty)
	out := make([]shared.Subject, 0, len(codes))
	for _, code := range codes {
		subj, err := FindSubject(code, subjects, true)
		if err != nil {
			subj = shared.Subject{Code: code}
		}
		out = append(out, subj)
	}
	return out
}

func requiredField(field string) error {
	return shared.NewValidationError(field+" is required",
		shared.FieldError{Field: field, Message: field + " is required"})
}
