package marksheet

import (
	"context"
	"errors"
	"testing"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/shared"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	store.AddStudents(
		shared.Student{ID: "stu_1", RollNo: "cs2023001", Name: "Asha Rao", Email: "asha@uni.edu", Department: "CSE", UserID: "usr_stu1"},
		shared.Student{ID: "stu_2", RollNo: "ME2023007", Name: "Ravi Kumar", Department: "ME"},
	)
	store.AddSubjects(
		shared.Subject{ID: "sub_cs101", Code: "CS101", Name: "Programming", Department: "CSE"},
		shared.Subject{ID: "sub_cs102", Code: "CS102", Name: "Data Structures", Department: "CSE"},
		shared.Subject{ID: "sub_me201", Code: "ME201", Name: "Thermodynamics", Department: "ME"},
	)
	store.PutFaculty(shared.FacultyProfile{
		ID: "fac_1", UserID: "usr_fac1", Name: "Dr. Sen", Department: "CSE",
		ProfileSubjects: []string{"CS101", "CS102", "ME201"},
	})
	store.PutFaculty(shared.FacultyProfile{
		ID: "fac_2", UserID: "usr_fac2", Name: "Dr. Nair", Department: "ME",
		Subjects: []string{"ME201"},
	})

	return NewService(store, store), store
}

func fullScores(mid1, mid2, assignment, attendance, external float64) grading.Scores {
	return grading.ScoreComponents{
		Mid1: mid1, Mid2: mid2, Assignment: assignment, Attendance: attendance, External: external,
	}.Scores()
}

func TestServiceSaveScore(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	entry, err := svc.SaveScore(ctx, "usr_fac1", SaveInput{
		RollNo:      "CS2023001",
		SubjectCode: "CS101",
		Scores:      fullScores(15, 15, 10, 8, 40),
	})
	if err != nil {
		t.Fatalf("SaveScore failed: %v", err)
	}

	// 15+15+10 = 40 is below the C band.
	if entry.Grade != grading.GradeF {
		t.Errorf("grade = %s, want F", entry.Grade)
	}
	if entry.StudentName != "Asha Rao" || entry.RollNo != "cs2023001" || entry.SubjectName != "Programming" {
		t.Errorf("denormalized fields not set: %+v", entry)
	}
	if entry.UpdatedBy != "usr_fac1" {
		t.Errorf("UpdatedBy = %q", entry.UpdatedBy)
	}

	// Saving the same pair again updates in place.
	entry2, err := svc.SaveScore(ctx, "usr_fac1", SaveInput{
		Email:       "ASHA@uni.edu",
		SubjectCode: "CS101",
		Scores:      fullScores(20, 20, 10, 10, 50),
	})
	if err != nil {
		t.Fatalf("second SaveScore failed: %v", err)
	}
	if entry2.ID != entry.ID || store.Len() != 1 {
		t.Errorf("expected an update of %s, got %s with %d entries", entry.ID, entry2.ID, store.Len())
	}
	// 20+20+10 = 50 is a C.
	if entry2.Grade != grading.GradeC {
		t.Errorf("grade = %s, want C", entry2.Grade)
	}
}

func TestServiceSaveScoreValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	tests := []struct {
		name      string
		in        SaveInput
		wantField string
	}{
		{
			name:      "no student key",
			in:        SaveInput{SubjectCode: "CS101", Scores: fullScores(1, 1, 1, 1, 1)},
			wantField: "roll_no",
		},
		{
			name:      "no subject",
			in:        SaveInput{RollNo: "cs2023001", Scores: fullScores(1, 1, 1, 1, 1)},
			wantField: "subject_code",
		},
		{
			name: "missing component",
			in: SaveInput{RollNo: "cs2023001", SubjectCode: "CS101", Scores: grading.Scores{
				Mid1: grading.Float(10), Mid2: grading.Float(10), Assignment: grading.Float(5), Attendance: grading.Float(5),
			}},
			wantField: "external",
		},
		{
			name:      "mid-term above range",
			in:        SaveInput{RollNo: "cs2023001", SubjectCode: "CS101", Scores: fullScores(21, 10, 5, 5, 30)},
			wantField: "mid1",
		},
		{
			name:      "attendance above range",
			in:        SaveInput{RollNo: "cs2023001", SubjectCode: "CS101", Scores: fullScores(10, 10, 5, 11, 30)},
			wantField: "attendance",
		},
		{
			name:      "negative external",
			in:        SaveInput{RollNo: "cs2023001", SubjectCode: "CS101", Scores: fullScores(10, 10, 5, 5, -1)},
			wantField: "external",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveScore(ctx, "usr_fac1", tt.in)
			vErr, ok := shared.AsValidationError(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, f := range vErr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a violation on %q, got %+v", tt.wantField, vErr.Fields)
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("invalid submissions must not be stored, found %d entries", store.Len())
	}
}

func TestServiceSaveScoreAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	scores := fullScores(10, 10, 5, 5, 30)

	tests := []struct {
		name    string
		faculty string
		in      SaveInput
		reason  Reason
		wantErr error
	}{
		{"other department", "usr_fac2", SaveInput{RollNo: "cs2023001", SubjectCode: "ME201", Scores: scores}, ReasonDifferentDepartment, nil},
		{"not assigned", "usr_fac1", SaveInput{RollNo: "cs2023001", SubjectCode: "CS999", Scores: scores}, ReasonNotAssigned, nil},
		{"subject of another department", "usr_fac1", SaveInput{RollNo: "cs2023001", SubjectCode: "ME201", Scores: scores}, ReasonSubjectOtherDepartment, nil},
		{"unknown faculty", "usr_nobody", SaveInput{RollNo: "cs2023001", SubjectCode: "CS101", Scores: scores}, "", ErrFacultyNotFound},
		{"unknown student", "usr_fac1", SaveInput{RollNo: "zz", SubjectCode: "CS101", Scores: scores}, "", ErrStudentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveScore(ctx, tt.faculty, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			aErr, ok := AsAuthorizationError(err)
			if !ok || aErr.Reason != tt.reason {
				t.Fatalf("expected reason %s, got %v", tt.reason, err)
			}
		})
	}
}

func TestServiceSaveScoresPartialFailure(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	res, err := svc.SaveScores(ctx, "usr_fac1", "CS2023001", []SubjectScores{
		{SubjectCode: "CS101", Scores: fullScores(20, 20, 10, 10, 50)},
		{SubjectCode: "ME201", Scores: fullScores(10, 10, 5, 5, 30)},
		{SubjectCode: "CS102", Scores: fullScores(25, 10, 5, 5, 30)},
	})
	if err != nil {
		t.Fatalf("SaveScores failed: %v", err)
	}

	if res.Saved != 1 || res.Failed != 2 {
		t.Fatalf("saved=%d failed=%d, want 1/2", res.Saved, res.Failed)
	}
	if res.Results[0].Err != nil || res.Results[0].Entry.Grade != grading.GradeC {
		t.Errorf("CS101 result wrong: %+v", res.Results[0])
	}
	if !errors.Is(res.Results[1].Err, ErrUnauthorized) {
		t.Errorf("ME201 should be refused, got %v", res.Results[1].Err)
	}
	if _, ok := shared.AsValidationError(res.Results[2].Err); !ok {
		t.Errorf("CS102 should fail validation, got %v", res.Results[2].Err)
	}

	if _, err := store.FindByStudentAndSubject(ctx, "stu_1", "sub_cs101"); err != nil {
		t.Errorf("CS101 must stay saved after later failures: %v", err)
	}
}

func TestServiceSaveScoresStudentOutsideDepartment(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SaveScores(context.Background(), "usr_fac2", "cs2023001", []SubjectScores{
		{SubjectCode: "ME201", Scores: fullScores(10, 10, 5, 5, 30)},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestServiceSaveScoresResolvesRollOnly(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.SaveScores(context.Background(), "usr_fac1", "Asha Rao", []SubjectScores{
		{SubjectCode: "CS101", Scores: fullScores(20, 20, 10, 10, 50)},
	})
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound for a name, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("nothing should be saved, store has %d entries", store.Len())
	}
}

func TestServiceSaveScoreSubjectCodeCase(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	store.PutFaculty(shared.FacultyProfile{
		ID: "fac_3", UserID: "usr_fac3", Name: "Dr. Bose", Department: "CSE",
		ProfileSubjects: []string{"me201"},
	})

	tests := []struct {
		name   string
		code   string
		reason Reason
	}{
		// The lowercase code is assigned and resolves to ME201, which the
		// subject department check must still see.
		{"assigned code in other case", "me201", ReasonSubjectOtherDepartment},
		{"exact code not assigned", "ME201", ReasonNotAssigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveScore(ctx, "usr_fac3", SaveInput{
				RollNo: "cs2023001", SubjectCode: tt.code, Scores: fullScores(20, 20, 10, 10, 50),
			})
			aErr, ok := AsAuthorizationError(err)
			if !ok || aErr.Reason != tt.reason {
				t.Fatalf("expected reason %s, got %v", tt.reason, err)
			}
			if store.Len() != 0 {
				t.Errorf("refused save was stored: %d entries", store.Len())
			}
		})
	}
}

func TestServiceSearchStudent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.SaveScore(ctx, "usr_fac1", SaveInput{
		RollNo: "cs2023001", SubjectCode: "CS102", Scores: fullScores(0, 12, 7, 9, 33),
	}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.SearchStudent(ctx, "usr_fac1", "asha rao")
	if err != nil {
		t.Fatalf("SearchStudent failed: %v", err)
	}
	if res.Student.ID != "stu_1" {
		t.Errorf("resolved %s, want stu_1", res.Student.ID)
	}
	if len(res.AssignedSubjects) != 3 || res.AssignedSubjects[0].Name != "Programming" {
		t.Errorf("unexpected assigned subjects: %+v", res.AssignedSubjects)
	}
	if got := res.Prefill["CS102"]; got.Mid1 != "0" || got.Mid2 != "12" {
		t.Errorf("unexpected prefill: %+v", res.Prefill)
	}
	if _, ok := res.Prefill["CS101"]; ok {
		t.Error("CS101 has no entry and must not be prefilled")
	}

	if _, err := svc.SearchStudent(ctx, "usr_fac1", ""); err == nil {
		t.Error("empty query must be rejected")
	} else if _, ok := shared.AsValidationError(err); !ok {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestServiceMarksheets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.SaveScore(ctx, "usr_fac1", SaveInput{
		RollNo: "cs2023001", SubjectCode: "CS101", Scores: fullScores(12, 17, 10, 10, 45),
	}); err != nil {
		t.Fatal(err)
	}

	t.Run("by exact roll with editable flag", func(t *testing.T) {
		sheet, err := svc.StudentMarksheet(ctx, "usr_fac1", "cs2023001")
		if err != nil {
			t.Fatalf("StudentMarksheet failed: %v", err)
		}
		if len(sheet.Rows) != 1 {
			t.Fatalf("expected one row, got %d", len(sheet.Rows))
		}
		row := sheet.Rows[0]
		if row.BestOfTwo != 17 || row.Total != 94 || !row.Editable {
			t.Errorf("unexpected row: best=%v total=%v editable=%v", row.BestOfTwo, row.Total, row.Editable)
		}

		other, err := svc.StudentMarksheet(ctx, "usr_fac2", "cs2023001")
		if err != nil {
			t.Fatal(err)
		}
		if other.Rows[0].Editable {
			t.Error("unassigned faculty must not see the row as editable")
		}

		if _, err := svc.StudentMarksheet(ctx, "", "CS2023001"); !errors.Is(err, ErrStudentNotFound) {
			t.Errorf("roll lookup must be exact, got %v", err)
		}
	})

	t.Run("lookup by email", func(t *testing.T) {
		sheet, err := svc.LookupMarksheet(ctx, "asha@UNI.edu")
		if err != nil {
			t.Fatalf("LookupMarksheet failed: %v", err)
		}
		if sheet.Student.ID != "stu_1" || len(sheet.Rows) != 1 || sheet.Rows[0].Editable {
			t.Errorf("unexpected marksheet: %+v", sheet)
		}
	})

	t.Run("own marksheet", func(t *testing.T) {
		sheet, err := svc.MyMarksheet(ctx, "usr_stu1")
		if err != nil {
			t.Fatalf("MyMarksheet failed: %v", err)
		}
		// 12+17+10 = 39 is an F.
		if len(sheet.Rows) != 1 || sheet.Rows[0].Grade != grading.GradeF {
			t.Errorf("unexpected rows: %+v", sheet.Rows)
		}
	})
}

func TestServiceFacultyProfile(t *testing.T) {
	svc, _ := newTestService(t)

	profile, codes, err := svc.FacultyProfile(context.Background(), "usr_fac2")
	if err != nil {
		t.Fatal(err)
	}
	if profile.ID != "fac_2" || len(codes) != 1 || codes[0] != "ME201" {
		t.Errorf("unexpected profile %+v codes %v", profile, codes)
	}
}
