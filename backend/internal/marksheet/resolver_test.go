package marksheet

import (
	"errors"
	"testing"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/shared"
)

var directory = []shared.Student{
	{ID: "stu_1", RollNo: "cs2023001", Name: "Asha Rao", Email: "asha@uni.edu", Department: "CSE"},
	{ID: "stu_2", RollNumber: "ME2023007", Name: "Ravi Kumar", Email: "ravi@uni.edu", Department: "ME"},
	{ID: "stu_3", RollNo: "CS2023002", Name: "Meera Iyer", Department: "cse"},
	{ID: "stu_4", RollNo: "EE2023010", Name: "Asha Rao", Department: "EE"},
}

func TestFindStudent(t *testing.T) {
	cse := shared.FacultyProfile{Department: "CSE"}

	t.Run("roll number is case-insensitive", func(t *testing.T) {
		got, err := FindStudent("CS2023001", cse, directory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "stu_1" {
			t.Errorf("got %s, want stu_1", got.ID)
		}
	})

	t.Run("faculty department compares case-insensitively", func(t *testing.T) {
		got, err := FindStudent("cs2023002", cse, directory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "stu_3" {
			t.Errorf("got %s, want stu_3", got.ID)
		}
	})

	t.Run("name is case-insensitive and narrowed to department", func(t *testing.T) {
		got, err := FindStudent("asha rao", cse, directory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "stu_1" {
			t.Errorf("got %s, want stu_1 (same name exists in EE)", got.ID)
		}
	})

	t.Run("student in another department is an authorization error", func(t *testing.T) {
		_, err := FindStudent("CS2023001", shared.FacultyProfile{Department: "ME"}, directory)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if errors.Is(err, ErrStudentNotFound) {
			t.Error("authorization error must not match ErrStudentNotFound")
		}
		aErr, ok := AsAuthorizationError(err)
		if !ok || aErr.Reason != ReasonDifferentDepartment {
			t.Errorf("expected reason %s, got %v", ReasonDifferentDepartment, err)
		}
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		_, err := FindStudent("XX0000000", cse, directory)
		if !errors.Is(err, ErrStudentNotFound) {
			t.Fatalf("expected ErrStudentNotFound, got %v", err)
		}
	})

	t.Run("no partial matching", func(t *testing.T) {
		if _, err := FindStudent("CS2023", cse, directory); !errors.Is(err, ErrStudentNotFound) {
			t.Errorf("expected ErrStudentNotFound for prefix, got %v", err)
		}
	})

	t.Run("faculty without department sees everyone", func(t *testing.T) {
		got, err := FindStudent("me2023007", shared.FacultyProfile{}, directory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "stu_2" {
			t.Errorf("got %s, want stu_2", got.ID)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		if _, err := FindStudent("  ", cse, directory); !errors.Is(err, ErrStudentNotFound) {
			t.Errorf("expected ErrStudentNotFound, got %v", err)
		}
	})

	t.Run("student department is trimmed", func(t *testing.T) {
		padded := []shared.Student{{ID: "stu_9", RollNo: "CS2023009", Name: "Kiran Das", Department: " CSE "}}
		got, err := FindStudent("cs2023009", cse, padded)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "stu_9" {
			t.Errorf("got %s, want stu_9", got.ID)
		}
	})
}

func TestFindStudentByRollInDepartment(t *testing.T) {
	cse := shared.FacultyProfile{Department: "CSE"}

	tests := []struct {
		name       string
		faculty    shared.FacultyProfile
		roll       string
		wantID     string
		wantErr    error
		wantReason Reason
	}{
		{name: "roll number any case", faculty: cse, roll: "CS2023001", wantID: "stu_1"},
		{name: "legacy roll number", faculty: shared.FacultyProfile{Department: "ME"}, roll: "me2023007", wantID: "stu_2"},
		{name: "name does not resolve", faculty: cse, roll: "Asha Rao", wantErr: ErrStudentNotFound},
		{name: "other department", faculty: cse, roll: "EE2023010", wantErr: ErrUnauthorized, wantReason: ReasonDifferentDepartment},
		{name: "blank", faculty: cse, roll: " ", wantErr: ErrStudentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindStudentByRollInDepartment(tt.roll, tt.faculty, directory)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if tt.wantReason != "" {
					if aErr, ok := AsAuthorizationError(err); !ok || aErr.Reason != tt.wantReason {
						t.Errorf("expected reason %s, got %v", tt.wantReason, err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("got %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestLookupStudent(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr error
	}{
		{"roll no any case", "CS2023001", "stu_1", nil},
		{"legacy roll number", "me2023007", "stu_2", nil},
		{"email any case", "ASHA@UNI.EDU", "stu_1", nil},
		{"exact name", "Ravi Kumar", "stu_2", nil},
		{"trimmed", "  Ravi Kumar ", "stu_2", nil},
		// Name matching is case-sensitive here, unlike the faculty search.
		{"name wrong case", "ravi kumar", "", ErrStudentNotFound},
		{"unknown", "nobody", "", ErrStudentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookupStudent(tt.query, directory)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("got %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestFindStudentByRoll(t *testing.T) {
	if got, err := FindStudentByRoll("ME2023007", directory); err != nil || got.ID != "stu_2" {
		t.Errorf("legacy roll number: got %v, %v", got.ID, err)
	}
	if _, err := FindStudentByRoll("CS2023001", directory); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("roll lookup must be exact, got %v", err)
	}
}

func TestAssignedSubjectCodes(t *testing.T) {
	both := shared.FacultyProfile{ProfileSubjects: []string{"CS101"}, Subjects: []string{"CS999", "CS101"}}
	if got := AssignedSubjectCodes(both); len(got) != 1 || got[0] != "CS101" {
		t.Errorf("profile subjects must win without merging, got %v", got)
	}

	legacy := shared.FacultyProfile{ProfileSubjects: []string{}, Subjects: []string{"CS201"}}
	if got := AssignedSubjectCodes(legacy); len(got) != 1 || got[0] != "CS201" {
		t.Errorf("empty profile subjects must fall back, got %v", got)
	}
}

func TestPrefillScores(t *testing.T) {
	faculty := shared.FacultyProfile{ProfileSubjects: []string{"CS101", "CS102", "CS103"}}
	entries := []shared.MarksheetEntry{
		{SubjectCode: "cs101", Scores: grading.Scores{Mid1: grading.Float(0), Mid2: grading.Float(15), External: grading.Float(40)}},
		{SubjectCode: "CS103", Scores: grading.Scores{Mid1: grading.Float(18)}},
		{SubjectCode: "MA101", Scores: grading.Scores{Mid1: grading.Float(9)}},
	}

	prefill := PrefillScores(faculty, entries)

	if len(prefill) != 2 {
		t.Fatalf("expected 2 prefilled subjects, got %d: %v", len(prefill), prefill)
	}
	got := prefill["CS101"]
	if got.Mid1 != "0" || got.Mid2 != "15" || got.External != "40" {
		t.Errorf("CS101 prefill wrong: %+v", got)
	}
	if got.Assignment != "" || got.Attendance != "" {
		t.Errorf("missing components must be empty strings: %+v", got)
	}
	if _, ok := prefill["CS102"]; ok {
		t.Error("subject without an entry must have no prefill")
	}
	if _, ok := prefill["MA101"]; ok {
		t.Error("unassigned subject must not be prefilled")
	}
}

func TestAuthorizeSave(t *testing.T) {
	cseStudent := shared.Student{ID: "stu_1", Department: "CSE"}
	cseFaculty := shared.FacultyProfile{Department: "CSE", ProfileSubjects: []string{"CS101", "ME201"}}

	tests := []struct {
		name       string
		faculty    shared.FacultyProfile
		student    shared.Student
		code       string
		meta       *shared.Subject
		wantReason Reason
	}{
		{
			name:    "all checks pass",
			faculty: cseFaculty, student: cseStudent, code: "CS101",
			meta: &shared.Subject{Code: "CS101", Department: "cse"},
		},
		{
			name:    "different department rejects regardless of subject",
			faculty: shared.FacultyProfile{Department: "CSE", ProfileSubjects: []string{"ME201"}},
			student: shared.Student{Department: "ME"}, code: "ME201",
			meta:       &shared.Subject{Code: "ME201", Department: "ME"},
			wantReason: ReasonDifferentDepartment,
		},
		{
			name:    "subject not assigned",
			faculty: cseFaculty, student: cseStudent, code: "CS999",
			wantReason: ReasonNotAssigned,
		},
		{
			name:    "subject belongs to another department",
			faculty: cseFaculty, student: cseStudent, code: "ME201",
			meta:       &shared.Subject{Code: "ME201", Department: "ME"},
			wantReason: ReasonSubjectOtherDepartment,
		},
		{
			name:    "missing departments skip department checks",
			faculty: shared.FacultyProfile{Subjects: []string{"CS101"}},
			student: shared.Student{}, code: "CS101",
			meta: &shared.Subject{Code: "CS101", Department: "ME"},
		},
		{
			name:    "unknown subject meta passes the third check",
			faculty: cseFaculty, student: cseStudent, code: "CS101",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeSave(tt.faculty, tt.student, tt.code, tt.meta)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			aErr, ok := AsAuthorizationError(err)
			if !ok {
				t.Fatalf("expected AuthorizationError, got %v", err)
			}
			if aErr.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", aErr.Reason, tt.wantReason)
			}
			if errors.Is(err, ErrNotAssigned) != (tt.wantReason == ReasonNotAssigned) {
				t.Errorf("ErrNotAssigned match is wrong for reason %s", aErr.Reason)
			}
		})
	}
}

func TestAuthorizationMessages(t *testing.T) {
	err := denied(ReasonNotAssigned)
	if err.Error() != "You are not assigned to this subject." {
		t.Errorf("unexpected message %q", err.Error())
	}
}
