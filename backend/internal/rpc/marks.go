package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/shared"
)

// ============================================================================
// Messages
// ============================================================================

type SearchStudentRequest struct {
	FacultyUserID string `json:"faculty_user_id"`
	Query         string `json:"query"`
}

type SearchStudentResponse struct {
	Student          shared.Student               `json:"student"`
	AssignedSubjects []shared.Subject             `json:"assigned_subjects"`
	Prefill          map[string]grading.RawScores `json:"prefill"`
}

type SaveScoreRequest struct {
	FacultyUserID string         `json:"faculty_user_id"`
	RollNo        string         `json:"roll_no,omitempty"`
	RollNumber    string         `json:"roll_number,omitempty"`
	Email         string         `json:"email,omitempty"`
	SubjectCode   string         `json:"subject_code"`
	Scores        grading.Scores `json:"scores"`
}

type SaveScoreResponse struct {
	Entry shared.MarksheetEntry `json:"entry"`
}

type SubjectScores struct {
	SubjectCode string         `json:"subject_code"`
	Scores      grading.Scores `json:"scores"`
}

type SaveScoresRequest struct {
	FacultyUserID string          `json:"faculty_user_id"`
	RollNo        string          `json:"roll_no"`
	Entries       []SubjectScores `json:"entries"`
}

// SubjectResult is the outcome of one subject in a batch save. Reason and
// Fields are set for authorization and validation failures respectively.
type SubjectResult struct {
	SubjectCode string                 `json:"subject_code"`
	Success     bool                   `json:"success"`
	Entry       *shared.MarksheetEntry `json:"entry,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Fields      []shared.FieldError    `json:"fields,omitempty"`
}

type SaveScoresResponse struct {
	Student shared.Student  `json:"student"`
	Results []SubjectResult `json:"results"`
	Saved   int32           `json:"saved"`
	Failed  int32           `json:"failed"`
}

type GetStudentMarksheetRequest struct {
	CallerUserID string `json:"caller_user_id"`
	RollNo       string `json:"roll_no"`
}

type LookupMarksheetRequest struct {
	Query string `json:"query"`
}

type GetMyMarksheetRequest struct {
	UserID string `json:"user_id"`
}

type MarksheetResponse struct {
	Student shared.Student   `json:"student"`
	Rows    []shared.MarkRow `json:"rows"`
}

type GetFacultyProfileRequest struct {
	UserID string `json:"user_id"`
}

type GetFacultyProfileResponse struct {
	Profile          shared.FacultyProfile `json:"profile"`
	AssignedSubjects []string              `json:"assigned_subjects"`
}

type ListStudentsRequest struct{}

type ListStudentsResponse struct {
	Students []shared.Student `json:"students"`
}

type ListSubjectsRequest struct{}

type ListSubjectsResponse struct {
	Subjects []shared.Subject `json:"subjects"`
}

// ============================================================================
// Service
// ============================================================================

const MarksServiceName = "marks.MarksService"

const (
	MarksService_SearchStudent_FullMethodName       = "/marks.MarksService/SearchStudent"
	MarksService_SaveScore_FullMethodName           = "/marks.MarksService/SaveScore"
	MarksService_SaveScores_FullMethodName          = "/marks.MarksService/SaveScores"
	MarksService_GetStudentMarksheet_FullMethodName = "/marks.MarksService/GetStudentMarksheet"
	MarksService_LookupMarksheet_FullMethodName     = "/marks.MarksService/LookupMarksheet"
	MarksService_GetMyMarksheet_FullMethodName      = "/marks.MarksService/GetMyMarksheet"
	MarksService_GetFacultyProfile_FullMethodName   = "/marks.MarksService/GetFacultyProfile"
	MarksService_ListStudents_FullMethodName        = "/marks.MarksService/ListStudents"
	MarksService_ListSubjects_FullMethodName        = "/marks.MarksService/ListSubjects"
)

// MarksServiceServer is the server API for the marks service.
type MarksServiceServer interface {
	SearchStudent(context.Context, *SearchStudentRequest) (*SearchStudentResponse, error)
	SaveScore(context.Context, *SaveScoreRequest) (*SaveScoreResponse, error)
	SaveScores(context.Context, *SaveScoresRequest) (*SaveScoresResponse, error)
	GetStudentMarksheet(context.Context, *GetStudentMarksheetRequest) (*MarksheetResponse, error)
	LookupMarksheet(context.Context, *LookupMarksheetRequest) (*MarksheetResponse, error)
	GetMyMarksheet(context.Context, *GetMyMarksheetRequest) (*MarksheetResponse, error)
	GetFacultyProfile(context.Context, *GetFacultyProfileRequest) (*GetFacultyProfileResponse, error)
	ListStudents(context.Context, *ListStudentsRequest) (*ListStudentsResponse, error)
	ListSubjects(context.Context, *ListSubjectsRequest) (*ListSubjectsResponse, error)
}

// UnimplementedMarksServiceServer can be embedded to satisfy
// MarksServiceServer with methods that return codes.Unimplemented.
type UnimplementedMarksServiceServer struct{}

func (UnimplementedMarksServiceServer) SearchStudent(context.Context, *SearchStudentRequest) (*SearchStudentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchStudent not implemented")
}
func (UnimplementedMarksServiceServer) SaveScore(context.Context, *SaveScoreRequest) (*SaveScoreResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveScore not implemented")
}
func (UnimplementedMarksServiceServer) SaveScores(context.Context, *SaveScoresRequest) (*SaveScoresResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveScores not implemented")
}
func (UnimplementedMarksServiceServer) GetStudentMarksheet(context.Context, *GetStudentMarksheetRequest) (*MarksheetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStudentMarksheet not implemented")
}
func (UnimplementedMarksServiceServer) LookupMarksheet(context.Context, *LookupMarksheetRequest) (*MarksheetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method LookupMarksheet not implemented")
}
func (UnimplementedMarksServiceServer) GetMyMarksheet(context.Context, *GetMyMarksheetRequest) (*MarksheetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMyMarksheet not implemented")
}
func (UnimplementedMarksServiceServer) GetFacultyProfile(context.Context, *GetFacultyProfileRequest) (*GetFacultyProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetFacultyProfile not implemented")
}
func (UnimplementedMarksServiceServer) ListStudents(context.Context, *ListStudentsRequest) (*ListStudentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListStudents not implemented")
}
func (UnimplementedMarksServiceServer) ListSubjects(context.Context, *ListSubjectsRequest) (*ListSubjectsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSubjects not implemented")
}

// MarksService_ServiceDesc is the grpc.ServiceDesc for the marks service.
var MarksService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MarksServiceName,
	HandlerType: (*MarksServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SearchStudent", Handler: unaryHandler(MarksService_SearchStudent_FullMethodName, MarksServiceServer.SearchStudent)},
		{MethodName: "SaveScore", Handler: unaryHandler(MarksService_SaveScore_FullMethodName, MarksServiceServer.SaveScore)},
		{MethodName: "SaveScores", Handler: unaryHandler(MarksService_SaveScores_FullMethodName, MarksServiceServer.SaveScores)},
		{MethodName: "GetStudentMarksheet", Handler: unaryHandler(MarksService_GetStudentMarksheet_FullMethodName, MarksServiceServer.GetStudentMarksheet)},
		{MethodName: "LookupMarksheet", Handler: unaryHandler(MarksService_LookupMarksheet_FullMethodName, MarksServiceServer.LookupMarksheet)},
		{MethodName: "GetMyMarksheet", Handler: unaryHandler(MarksService_GetMyMarksheet_FullMethodName, MarksServiceServer.GetMyMarksheet)},
		{MethodName: "GetFacultyProfile", Handler: unaryHandler(MarksService_GetFacultyProfile_FullMethodName, MarksServiceServer.GetFacultyProfile)},
		{MethodName: "ListStudents", Handler: unaryHandler(MarksService_ListStudents_FullMethodName, MarksServiceServer.ListStudents)},
		{MethodName: "ListSubjects", Handler: unaryHandler(MarksService_ListSubjects_FullMethodName, MarksServiceServer.ListSubjects)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marks",
}

func RegisterMarksServiceServer(s grpc.ServiceRegistrar, srv MarksServiceServer) {
	s.RegisterService(&MarksService_ServiceDesc, srv)
}

// MarksServiceClient is the client API for the marks service.
type MarksServiceClient interface {
	SearchStudent(ctx context.Context, in *SearchStudentRequest, opts ...grpc.CallOption) (*SearchStudentResponse, error)
	SaveScore(ctx context.Context, in *SaveScoreRequest, opts ...grpc.CallOption) (*SaveScoreResponse, error)
	SaveScores(ctx context.Context, in *SaveScoresRequest, opts ...grpc.CallOption) (*SaveScoresResponse, error)
	GetStudentMarksheet(ctx context.Context, in *GetStudentMarksheetRequest, opts ...grpc.CallOption) (*MarksheetResponse, error)
	LookupMarksheet(ctx context.Context, in *LookupMarksheetRequest, opts ...grpc.CallOption) (*MarksheetResponse, error)
	GetMyMarksheet(ctx context.Context, in *GetMyMarksheetRequest, opts ...grpc.CallOption) (*MarksheetResponse, error)
	GetFacultyProfile(ctx context.Context, in *GetFacultyProfileRequest, opts ...grpc.CallOption) (*GetFacultyProfileResponse, error)
	ListStudents(ctx context.Context, in *ListStudentsRequest, opts ...grpc.CallOption) (*ListStudentsResponse, error)
	ListSubjects(ctx context.Context, in *ListSubjectsRequest, opts ...grpc.CallOption) (*ListSubjectsResponse, error)
}

type marksServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarksServiceClient(cc grpc.ClientConnInterface) MarksServiceClient {
	return &marksServiceClient{cc: cc}
}

func (c *marksServiceClient) SearchStudent(ctx context.Context, in *SearchStudentRequest, opts ...grpc.CallOption) (*SearchStudentResponse, error) {
	return invoke[SearchStudentResponse](ctx, c.cc, MarksService_SearchStudent_FullMethodName, in, opts)
}

func (c *marksServiceClient) SaveScore(ctx context.Context, in *SaveScoreRequest, opts ...grpc.CallOption) (*SaveScoreResponse, error) {
	return invoke[SaveScoreResponse](ctx, c.cc, MarksService_SaveScore_FullMethodName, in, opts)
}

func (c *marksServiceClient) SaveScores(ctx context.Context, in *SaveScoresRequest, opts ...grpc.CallOption) (*SaveScoresResponse, error) {
	return invoke[SaveScoresResponse](ctx, c.cc, MarksService_SaveScores_FullMethodName, in, opts)
}

func (c *marksServiceClient) GetStudentMarksheet(ctx context.Context, in *GetStudentMarksheetRequest, opts ...grpc.CallOption) (*MarksheetResponse, error) {
	return invoke[MarksheetResponse](ctx, c.cc, MarksService_GetStudentMarksheet_FullMethodName, in, opts)
}

func (c *marksServiceClient) LookupMarksheet(ctx context.Context, in *LookupMarksheetRequest, opts ...grpc.CallOption) (*MarksheetResponse, error) {
	return invoke[MarksheetResponse](ctx, c.cc, MarksService_LookupMarksheet_FullMethodName, in, opts)
}

func (c *marksServiceClient) GetMyMarksheet(ctx context.Context, in *GetMyMarksheetRequest, opts ...grpc.CallOption) (*MarksheetResponse, error) {
	return invoke[MarksheetResponse](ctx, c.cc, MarksService_GetMyMarksheet_FullMethodName, in, opts)
}

func (c *marksServiceClient) GetFacultyProfile(ctx context.Context, in *GetFacultyProfileRequest, opts ...grpc.CallOption) (*GetFacultyProfileResponse, error) {
	return invoke[GetFacultyProfileResponse](ctx, c.cc, MarksService_GetFacultyProfile_FullMethodName, in, opts)
}

func (c *marksServiceClient) ListStudents(ctx context.Context, in *ListStudentsRequest, opts ...grpc.CallOption) (*ListStudentsResponse, error) {
	return invoke[ListStudentsResponse](ctx, c.cc, MarksService_ListStudents_FullMethodName, in, opts)
}

func (c *marksServiceClient) ListSubjects(ctx context.Context, in *ListSubjectsRequest, opts ...grpc.CallOption) (*ListSubjectsResponse, error) {
	return invoke[ListSubjectsResponse](ctx, c.cc, MarksService_ListSubjects_FullMethodName, in, opts)
}
