package marks

import (
	"context"
	"errors"
	"log"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marksportal/backend/internal/marksheet"
	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/shared"
)

// ErrorDomain is the ErrorInfo domain attached to authorization failures.
const ErrorDomain = "marks.marksportal"

// MarksService implements the gRPC MarksService
type MarksService struct {
	rpc.UnimplementedMarksServiceServer
	svc *marksheet.Service
}

// NewMarksService creates a new MarksService instance
func NewMarksService(store marksheet.Store, dir marksheet.Directory) *MarksService {
	return &MarksService{svc: marksheet.NewService(store, dir)}
}

// SearchStudent resolves a student for the marks feed and prefills their scores
func (s *MarksService) SearchStudent(ctx context.Context, req *rpc.SearchStudentRequest) (*rpc.SearchStudentResponse, error) {
	if req == nil || req.FacultyUserID == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty_user_id is required")
	}

	res, err := s.svc.SearchStudent(ctx, req.FacultyUserID, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}

	return &rpc.SearchStudentResponse{
		Student:          res.Student,
		AssignedSubjects: res.AssignedSubjects,
		Prefill:          res.Prefill,
	}, nil
}

// SaveScore saves one subject's scores for a student
func (s *MarksService) SaveScore(ctx context.Context, req *rpc.SaveScoreRequest) (*rpc.SaveScoreResponse, error) {
	if req == nil || req.FacultyUserID == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty_user_id is required")
	}

	entry, err := s.svc.SaveScore(ctx, req.FacultyUserID, marksheet.SaveInput{
		RollNo:      req.RollNo,
		RollNumber:  req.RollNumber,
		Email:       req.Email,
		SubjectCode: req.SubjectCode,
		Scores:      req.Scores,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	log.Printf("INFO: Saved %s for %s (grade %s) by %s", entry.SubjectCode, entry.RollNo, entry.Grade, req.FacultyUserID)
	return &rpc.SaveScoreResponse{Entry: entry}, nil
}

// SaveScores saves several subjects for one student. Per-subject failures
// are reported in the response; only failures to resolve the student or the
// faculty member fail the call.
func (s *MarksService) SaveScores(ctx context.Context, req *rpc.SaveScoresRequest) (*rpc.SaveScoresResponse, error) {
	if req == nil || req.FacultyUserID == "" {
		return nil, status.Error(codes.InvalidArgument, "faculty_user_id is required")
	}

	items := make([]marksheet.SubjectScores, 0, len(req.Entries))
	for _, e := range req.Entries {
		items = append(items, marksheet.SubjectScores{SubjectCode: e.SubjectCode, Scores: e.Scores})
	}

	res, err := s.svc.SaveScores(ctx, req.FacultyUserID, req.RollNo, items)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &rpc.SaveScoresResponse{
		Student: res.Student,
		Results: make([]rpc.SubjectResult, 0, len(res.Results)),
		Saved:   int32(res.Saved),
		Failed:  int32(res.Failed),
	}
	for _, r := range res.Results {
		resp.Results = append(resp.Results, subjectResult(r))
	}

	log.Printf("INFO: Batch save for %s by %s: %d saved, %d failed", res.Student.Roll(), req.FacultyUserID, res.Saved, res.Failed)
	return resp, nil
}

// GetStudentMarksheet returns all marks of a student by exact roll number
func (s *MarksService) GetStudentMarksheet(ctx context.Context, req *rpc.GetStudentMarksheetRequest) (*rpc.MarksheetResponse, error) {
	if req == nil || req.RollNo == "" {
		return nil, status.Error(codes.InvalidArgument, "roll_no is required")
	}

	sheet, err := s.svc.StudentMarksheet(ctx, req.CallerUserID, req.RollNo)
	if err != nil {
		return nil, toStatus(err)
	}
	return marksheetResponse(sheet), nil
}

// LookupMarksheet searches the directory and returns the student's marks
func (s *MarksService) LookupMarksheet(ctx context.Context, req *rpc.LookupMarksheetRequest) (*rpc.MarksheetResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}

	sheet, err := s.svc.LookupMarksheet(ctx, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	return marksheetResponse(sheet), nil
}

// GetMyMarksheet returns the calling student's own marks
func (s *MarksService) GetMyMarksheet(ctx context.Context, req *rpc.GetMyMarksheetRequest) (*rpc.MarksheetResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	sheet, err := s.svc.MyMarksheet(ctx, req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return marksheetResponse(sheet), nil
}

// GetFacultyProfile returns a faculty profile and its assigned subject codes
func (s *MarksService) GetFacultyProfile(ctx context.Context, req *rpc.GetFacultyProfileRequest) (*rpc.GetFacultyProfileResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	profile, assigned, err := s.svc.FacultyProfile(ctx, req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.GetFacultyProfileResponse{Profile: profile, AssignedSubjects: assigned}, nil
}

// ListStudents returns the student directory
func (s *MarksService) ListStudents(ctx context.Context, req *rpc.ListStudentsRequest) (*rpc.ListStudentsResponse, error) {
	students, err := s.svc.ListStudents(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if students == nil {
		students = []shared.Student{}
	}
	return &rpc.ListStudentsResponse{Students: students}, nil
}

// ListSubjects returns the subject directory
func (s *MarksService) ListSubjects(ctx context.Context, req *rpc.ListSubjectsRequest) (*rpc.ListSubjectsResponse, error) {
	subjects, err := s.svc.ListSubjects(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if subjects == nil {
		subjects = []shared.Subject{}
	}
	return &rpc.ListSubjectsResponse{Subjects: subjects}, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func marksheetResponse(sheet marksheet.Marksheet) *rpc.MarksheetResponse {
	rows := sheet.Rows
	if rows == nil {
		rows = []shared.MarkRow{}
	}
	return &rpc.MarksheetResponse{Student: sheet.Student, Rows: rows}
}

func subjectResult(r marksheet.SubjectResult) rpc.SubjectResult {
	out := rpc.SubjectResult{SubjectCode: r.SubjectCode}
	if r.Err == nil {
		entry := r.Entry
		out.Success = true
		out.Entry = &entry
		out.Message = "saved"
		return out
	}

	out.Message = r.Err.Error()
	if aErr, ok := marksheet.AsAuthorizationError(r.Err); ok {
		out.Reason = string(aErr.Reason)
	}
	if vErr, ok := shared.AsValidationError(r.Err); ok {
		out.Message = vErr.Message
		out.Fields = vErr.Fields
	}
	return out
}

// toStatus maps domain errors onto gRPC status codes. Authorization and
// validation failures carry their details for the gateway.
func toStatus(err error) error {
	if vErr, ok := shared.AsValidationError(err); ok {
		st := status.New(codes.InvalidArgument, vErr.Message)
		br := &errdetails.BadRequest{}
		for _, f := range vErr.Fields {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       f.Field,
				Description: f.Message,
			})
		}
		if ds, dErr := st.WithDetails(br); dErr == nil {
			st = ds
		}
		return st.Err()
	}

	if aErr, ok := marksheet.AsAuthorizationError(err); ok {
		st := status.New(codes.PermissionDenied, aErr.Error())
		info := &errdetails.ErrorInfo{
			Reason: string(aErr.Reason),
			Domain: ErrorDomain,
		}
		if ds, dErr := st.WithDetails(info); dErr == nil {
			st = ds
		}
		return st.Err()
	}

	switch {
	case errors.Is(err, marksheet.ErrStudentNotFound):
		return status.Error(codes.NotFound, "Student not found. Please check the name or roll number.")
	case errors.Is(err, marksheet.ErrSubjectNotFound):
		return status.Error(codes.NotFound, "Subject not found")
	case errors.Is(err, marksheet.ErrFacultyNotFound):
		return status.Error(codes.PermissionDenied, "Faculty not found or not authorized")
	case errors.Is(err, marksheet.ErrEntryNotFound):
		return status.Error(codes.NotFound, "marksheet entry not found")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	}

	log.Printf("ERROR: marks service: %v", err)
	return status.Error(codes.Internal, "internal error")
}
