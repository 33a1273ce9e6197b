// Package marksheet resolves students and their per-subject scores for a
// faculty member, and decides whether that faculty member may write them.
package marksheet

import (
	"strings"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/shared"
)

// AssignedSubjectCodes returns the subject codes a faculty member teaches.
// ProfileSubjects wins when non-empty; the two lists are never merged.
func AssignedSubjectCodes(faculty shared.FacultyProfile) []string {
	if len(faculty.ProfileSubjects) > 0 {
		return faculty.ProfileSubjects
	}
	return faculty.Subjects
}

// IsAssigned reports whether code is one of the faculty member's subjects.
func IsAssigned(faculty shared.FacultyProfile, code string) bool {
	for _, c := range AssignedSubjectCodes(faculty) {
		if c == code {
			return true
		}
	}
	return false
}

// FindStudent resolves query to a student visible to faculty. Candidates are
// narrowed to the faculty's department when one is set, then matched on roll
// number or name, case-insensitively and exactly. The first match wins.
//
// A student that matches only outside the faculty's department yields an
// *AuthorizationError rather than ErrStudentNotFound.
func FindStudent(query string, faculty shared.FacultyProfile, candidates []shared.Student) (shared.Student, error) {
	return findInDepartment(query, faculty, candidates, matchesRollOrName)
}

// FindStudentByRollInDepartment is FindStudent restricted to roll numbers.
// A student's name never resolves here.
func FindStudentByRollInDepartment(rollNo string, faculty shared.FacultyProfile, candidates []shared.Student) (shared.Student, error) {
	return findInDepartment(rollNo, faculty, candidates, matchesRoll)
}

func findInDepartment(query string, faculty shared.FacultyProfile, candidates []shared.Student, match func(shared.Student, string) bool) (shared.Student, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return shared.Student{}, ErrStudentNotFound
	}

	dept := strings.TrimSpace(faculty.Department)
	for _, s := range candidates {
		if dept != "" && !strings.EqualFold(strings.TrimSpace(s.Department), dept) {
			continue
		}
		if match(s, q) {
			return s, nil
		}
	}

	if dept != "" {
		for _, s := range candidates {
			if match(s, q) {
				return shared.Student{}, denied(ReasonDifferentDepartment)
			}
		}
	}

	return shared.Student{}, ErrStudentNotFound
}

func matchesRoll(s shared.Student, q string) bool {
	return equalFoldSet(s.RollNo, q) || equalFoldSet(s.RollNumber, q)
}

func matchesRollOrName(s shared.Student, q string) bool {
	return matchesRoll(s, q) || equalFoldSet(s.Name, q)
}

// LookupStudent is the directory search behind the public marksheet view.
// Roll number, legacy roll number and email compare case-insensitively;
// name must match exactly, case included.
func LookupStudent(query string, candidates []shared.Student) (shared.Student, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return shared.Student{}, ErrStudentNotFound
	}

	for _, s := range candidates {
		if equalFoldSet(s.RollNo, q) ||
			equalFoldSet(s.RollNumber, q) ||
			s.Name == q ||
			equalFoldSet(s.Email, q) {
			return s, nil
		}
	}
	return shared.Student{}, ErrStudentNotFound
}

// FindStudentByRoll matches rollNo or the legacy roll number exactly.
func FindStudentByRoll(roll string, candidates []shared.Student) (shared.Student, error) {
	if roll == "" {
		return shared.Student{}, ErrStudentNotFound
	}
	for _, s := range candidates {
		if s.RollNo == roll || s.RollNumber == roll {
			return s, nil
		}
	}
	return shared.Student{}, ErrStudentNotFound
}

// FindStudentForSave locates the student a score is being written for, by
// roll number, legacy roll number or email; all case-insensitive.
func FindStudentForSave(rollNo, rollNumber, email string, candidates []shared.Student) (shared.Student, error) {
	for _, s := range candidates {
		if (rollNo != "" && strings.EqualFold(s.RollNo, rollNo)) ||
			(rollNumber != "" && strings.EqualFold(s.RollNumber, rollNumber)) ||
			(email != "" && strings.EqualFold(s.Email, email)) {
			return s, nil
		}
	}
	return shared.Student{}, ErrStudentNotFound
}

// FindSubject looks up a subject by code. exact selects a case-sensitive
// match; otherwise codes compare case-insensitively.
func FindSubject(code string, subjects []shared.Subject, exact bool) (shared.Subject, error) {
	for _, s := range subjects {
		if s.Code == code || (!exact && strings.EqualFold(s.Code, code)) {
			return s, nil
		}
	}
	return shared.Subject{}, ErrSubjectNotFound
}

// PrefillScores builds the score editors for every subject the faculty member
// teaches. An existing entry is found by case-insensitive subject code and
// rendered as text, with missing components left empty. Subjects without an
// entry get no key.
func PrefillScores(faculty shared.FacultyProfile, entries []shared.MarksheetEntry) map[string]grading.RawScores {
	prefill := make(map[string]grading.RawScores)
	for _, code := range AssignedSubjectCodes(faculty) {
		for _, e := range entries {
			if strings.EqualFold(e.SubjectCode, code) {
				prefill[code] = e.Scores.Raw()
				break
			}
		}
	}
	return prefill
}

// AuthorizeSave runs the three write checks in order and stops at the first
// failure:
//  1. faculty and student departments differ (both set)
//  2. subjectCode is not assigned to the faculty member
//  3. the subject's department differs from the student's (both set)
//
// subjectMeta may be nil when the subject is not in the directory, in which
// case the third check passes.
func AuthorizeSave(faculty shared.FacultyProfile, student shared.Student, subjectCode string, subjectMeta *shared.Subject) error {
	if differ(faculty.Department, student.Department) {
		return denied(ReasonDifferentDepartment)
	}

	if !IsAssigned(faculty, subjectCode) {
		return denied(ReasonNotAssigned)
	}

	if subjectMeta != nil && differ(subjectMeta.Department, student.Department) {
		return denied(ReasonSubjectOtherDepartment)
	}

	return nil
}

// differ reports whether both departments are set and not equal, ignoring case.
func differ(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && b != "" && !strings.EqualFold(a, b)
}

func equalFoldSet(field, q string) bool {
	return field != "" && strings.EqualFold(field, q)
}
