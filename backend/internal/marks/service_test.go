package marks

import (
	"context"
	"log"
	"net"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/marksheet"
	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/shared"
)

const bufSize = 1024 * 1024

var lis *bufconn.Listener

func seedStore() *marksheet.MemoryStore {
	store := marksheet.NewMemoryStore()
	store.AddStudents(
		shared.Student{ID: "stu_1", RollNo: "cs2023001", Name: "Asha Rao", Email: "asha@uni.edu", Department: "CSE", UserID: "usr_stu1"},
		shared.Student{ID: "stu_2", RollNo: "ME2023007", Name: "Ravi Kumar", Department: "ME"},
	)
	store.AddSubjects(
		shared.Subject{ID: "sub_cs101", Code: "CS101", Name: "Programming", Department: "CSE", Credits: 4},
		shared.Subject{ID: "sub_me201", Code: "ME201", Name: "Thermodynamics", Department: "ME", Credits: 3},
	)
	store.PutFaculty(shared.FacultyProfile{ID: "fac_1", UserID: "usr_fac1", Department: "CSE", ProfileSubjects: []string{"CS101", "ME201"}})
	store.PutFaculty(shared.FacultyProfile{ID: "fac_2", UserID: "usr_fac2", Department: "ME", Subjects: []string{"ME201"}})
	return store
}

func initServer() *grpc.Server {
	lis = bufconn.Listen(bufSize)
	s := grpc.NewServer(grpc.UnaryInterceptor(shared.UnaryLoggingInterceptor("marks-service")))

	store := seedStore()
	rpc.RegisterMarksServiceServer(s, NewMarksService(store, store))

	go func() {
		if err := s.Serve(lis); err != nil {
			log.Printf("Server exited: %v", err)
		}
	}()
	return s
}

func bufDialer(context.Context, string) (net.Conn, error) { return lis.Dial() }

func scores(mid1, mid2, assignment, attendance, external float64) grading.Scores {
	return grading.ScoreComponents{Mid1: mid1, Mid2: mid2, Assignment: assignment, Attendance: attendance, External: external}.Scores()
}

func TestMarksService_Integration(t *testing.T) {
	server := initServer()
	defer server.Stop()

	ctx := context.Background()
	opts := append(rpc.DialOptions(), grpc.WithContextDialer(bufDialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	conn, err := grpc.NewClient("passthrough://bufnet", opts...)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	client := rpc.NewMarksServiceClient(conn)

	// --- 1. Save a single subject ---
	t.Run("Save Score", func(t *testing.T) {
		resp, err := client.SaveScore(ctx, &rpc.SaveScoreRequest{
			FacultyUserID: "usr_fac1",
			RollNo:        "CS2023001",
			SubjectCode:   "CS101",
			Scores:        scores(20, 20, 10, 10, 50),
		})
		if err != nil {
			t.Fatalf("SaveScore failed: %v", err)
		}
		if resp.Entry.Grade != grading.GradeC || resp.Entry.SubjectCode != "CS101" {
			t.Errorf("unexpected entry: %+v", resp.Entry)
		}
	})

	// --- 2. Validation errors carry field violations ---
	t.Run("Save Score Out Of Range", func(t *testing.T) {
		_, err := client.SaveScore(ctx, &rpc.SaveScoreRequest{
			FacultyUserID: "usr_fac1",
			RollNo:        "cs2023001",
			SubjectCode:   "CS101",
			Scores:        scores(20, 20, 10, 10, 51),
		})
		st := status.Convert(err)
		if st.Code() != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
		var field string
		for _, d := range st.Details() {
			if br, ok := d.(*errdetails.BadRequest); ok && len(br.FieldViolations) > 0 {
				field = br.FieldViolations[0].Field
			}
		}
		if field != "external" {
			t.Errorf("expected a violation on external, got %q", field)
		}
	})

	// --- 3. Authorization errors carry the reason ---
	t.Run("Save Score Subject Of Other Department", func(t *testing.T) {
		_, err := client.SaveScore(ctx, &rpc.SaveScoreRequest{
			FacultyUserID: "usr_fac1",
			RollNo:        "cs2023001",
			SubjectCode:   "ME201",
			Scores:        scores(1, 1, 1, 1, 1),
		})
		st := status.Convert(err)
		if st.Code() != codes.PermissionDenied {
			t.Fatalf("expected PermissionDenied, got %v", err)
		}
		if reason := errorReason(st); reason != string(marksheet.ReasonSubjectOtherDepartment) {
			t.Errorf("reason = %q", reason)
		}
	})

	// --- 4. Search from the marks feed ---
	t.Run("Search Student", func(t *testing.T) {
		resp, err := client.SearchStudent(ctx, &rpc.SearchStudentRequest{FacultyUserID: "usr_fac1", Query: "ASHA RAO"})
		if err != nil {
			t.Fatalf("SearchStudent failed: %v", err)
		}
		if resp.Student.ID != "stu_1" {
			t.Errorf("resolved %s", resp.Student.ID)
		}
		if got := resp.Prefill["CS101"]; got.External != "50" {
			t.Errorf("unexpected prefill: %+v", resp.Prefill)
		}

		_, err = client.SearchStudent(ctx, &rpc.SearchStudentRequest{FacultyUserID: "usr_fac2", Query: "cs2023001"})
		st := status.Convert(err)
		if st.Code() != codes.PermissionDenied || errorReason(st) != string(marksheet.ReasonDifferentDepartment) {
			t.Errorf("expected DIFFERENT_DEPARTMENT, got %v", err)
		}

		_, err = client.SearchStudent(ctx, &rpc.SearchStudentRequest{FacultyUserID: "usr_fac1", Query: "nobody"})
		if status.Code(err) != codes.NotFound {
			t.Errorf("expected NotFound, got %v", err)
		}
	})

	// --- 5. Batch save with a partial failure ---
	t.Run("Save Scores Batch", func(t *testing.T) {
		resp, err := client.SaveScores(ctx, &rpc.SaveScoresRequest{
			FacultyUserID: "usr_fac1",
			RollNo:        "cs2023001",
			Entries: []rpc.SubjectScores{
				{SubjectCode: "CS101", Scores: scores(19, 18, 9, 9, 45)},
				{SubjectCode: "ME201", Scores: scores(19, 18, 9, 9, 45)},
			},
		})
		if err != nil {
			t.Fatalf("SaveScores failed: %v", err)
		}
		if resp.Saved != 1 || resp.Failed != 1 {
			t.Fatalf("saved=%d failed=%d", resp.Saved, resp.Failed)
		}
		if !resp.Results[0].Success || resp.Results[0].Entry.Grade != grading.GradeC {
			t.Errorf("CS101: %+v", resp.Results[0])
		}
		if resp.Results[1].Reason != string(marksheet.ReasonSubjectOtherDepartment) {
			t.Errorf("ME201: %+v", resp.Results[1])
		}
	})

	// --- 6. Read back ---
	t.Run("Get Student Marksheet", func(t *testing.T) {
		resp, err := client.GetStudentMarksheet(ctx, &rpc.GetStudentMarksheetRequest{CallerUserID: "usr_fac1", RollNo: "cs2023001"})
		if err != nil {
			t.Fatalf("GetStudentMarksheet failed: %v", err)
		}
		if len(resp.Rows) != 1 {
			t.Fatalf("expected one row after two saves of CS101, got %d", len(resp.Rows))
		}
		row := resp.Rows[0]
		// The second save overwrote the first.
		if row.BestOfTwo != 19 || row.Total != 100 || !row.Editable || row.Grade != grading.GradeC {
			t.Errorf("unexpected row: %+v", row)
		}
	})

	t.Run("Lookup And My Marksheet", func(t *testing.T) {
		if _, err := client.LookupMarksheet(ctx, &rpc.LookupMarksheetRequest{Query: ""}); status.Code(err) != codes.InvalidArgument {
			t.Errorf("expected InvalidArgument for empty query, got %v", err)
		}

		lookup, err := client.LookupMarksheet(ctx, &rpc.LookupMarksheetRequest{Query: "Asha Rao"})
		if err != nil || len(lookup.Rows) != 1 {
			t.Fatalf("LookupMarksheet: %+v, %v", lookup, err)
		}

		mine, err := client.GetMyMarksheet(ctx, &rpc.GetMyMarksheetRequest{UserID: "usr_stu1"})
		if err != nil || mine.Student.ID != "stu_1" || len(mine.Rows) != 1 {
			t.Fatalf("GetMyMarksheet: %+v, %v", mine, err)
		}
	})

	t.Run("Directory", func(t *testing.T) {
		profile, err := client.GetFacultyProfile(ctx, &rpc.GetFacultyProfileRequest{UserID: "usr_fac2"})
		if err != nil || len(profile.AssignedSubjects) != 1 {
			t.Fatalf("GetFacultyProfile: %+v, %v", profile, err)
		}

		students, err := client.ListStudents(ctx, &rpc.ListStudentsRequest{})
		if err != nil || len(students.Students) != 2 {
			t.Fatalf("ListStudents: %+v, %v", students, err)
		}

		subjects, err := client.ListSubjects(ctx, &rpc.ListSubjectsRequest{})
		if err != nil || len(subjects.Subjects) != 2 {
			t.Fatalf("ListSubjects: %+v, %v", subjects, err)
		}

		_, err = client.GetFacultyProfile(ctx, &rpc.GetFacultyProfileRequest{UserID: "usr_stu1"})
		if status.Code(err) != codes.PermissionDenied {
			t.Errorf("expected PermissionDenied for a non-faculty user, got %v", err)
		}
	})
}

func errorReason(st *status.Status) string {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.Reason
		}
	}
	return ""
}
