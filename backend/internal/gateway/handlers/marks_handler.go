package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"marksportal/backend/internal/gateway/util"
	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/rpc"
)

// MarksHandler holds the gRPC client for the Marks Service.
type MarksHandler struct {
	MarksClient rpc.MarksServiceClient
	Timeout     time.Duration
}

// scoreValue accepts a component as a JSON number or numeric string.
// null, "" and unparseable text all leave it missing.
type scoreValue struct {
	v *float64
}

func (s *scoreValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		s.v = nil
		return nil
	}

	var text string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	} else {
		text = string(data)
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		s.v = nil
		return nil
	}
	s.v = &f
	return nil
}

// RESTScores mirrors the five score components of the editor
type RESTScores struct {
	Mid1       scoreValue `json:"mid1"`
	Mid2       scoreValue `json:"mid2"`
	Assignment scoreValue `json:"assignment"`
	Attendance scoreValue `json:"attendance"`
	External   scoreValue `json:"external"`
}

func (s RESTScores) scores() grading.Scores {
	return grading.Scores{
		Mid1:       s.Mid1.v,
		Mid2:       s.Mid2.v,
		Assignment: s.Assignment.v,
		Attendance: s.Attendance.v,
		External:   s.External.v,
	}
}

// RESTSaveMarksheetRequest mirrors the JSON input for POST /marksheets.
// A client-supplied grade is accepted and ignored.
type RESTSaveMarksheetRequest struct {
	RollNo      string `json:"rollNo"`
	RollNumber  string `json:"rollNumber"`
	Email       string `json:"email"`
	SubjectCode string `json:"subjectCode"`
	Grade       string `json:"grade"`
	RESTScores
}

// RESTSubjectScores is one subject of a marksfeed batch
type RESTSubjectScores struct {
	SubjectCode string `json:"subjectCode"`
	RESTScores
}

// RESTSaveScoresRequest mirrors the JSON input for POST /marksfeed/:rollNo
type RESTSaveScoresRequest struct {
	Entries []RESTSubjectScores `json:"entries"`
}

// Ping handles GET /marksheets/ping
func (h *MarksHandler) Ping(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "pong",
	})
}

// ListStudents handles GET /students
func (h *MarksHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.ListStudents(ctx, &rpc.ListStudentsRequest{})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"students": grpcResp.Students,
	})
}

// ListSubjects handles GET /subjects
func (h *MarksHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.ListSubjects(ctx, &rpc.ListSubjectsRequest{})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"subjects": grpcResp.Subjects,
	})
}

// FacultyProfile handles GET /faculty-profile/me
func (h *MarksHandler) FacultyProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := util.SessionFromContext(r.Context())

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.GetFacultyProfile(ctx, &rpc.GetFacultyProfileRequest{UserID: session.User.ID})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"profile":           grpcResp.Profile,
		"assigned_subjects": grpcResp.AssignedSubjects,
	})
}

// SearchStudent handles GET /marksfeed/search?query=
// Finds a student in the faculty's department and prefills their scores.
func (h *MarksHandler) SearchStudent(w http.ResponseWriter, r *http.Request) {
	session, _ := util.SessionFromContext(r.Context())

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.SearchStudent(ctx, &rpc.SearchStudentRequest{
		FacultyUserID: session.User.ID,
		Query:         query,
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"student":           grpcResp.Student,
		"assigned_subjects": grpcResp.AssignedSubjects,
		"prefill":           grpcResp.Prefill,
	})
}

// SaveScores handles POST /marksfeed/:rollNo
// Each subject is saved independently; the response reports every outcome.
func (h *MarksHandler) SaveScores(w http.ResponseWriter, r *http.Request) {
	session, _ := util.SessionFromContext(r.Context())
	rollNo := chi.URLParam(r, "rollNo")

	var reqBody RESTSaveScoresRequest
	if !decodeBody(w, r, &reqBody) {
		return
	}

	if len(reqBody.Entries) == 0 {
		util.WriteJSONError(w, http.StatusBadRequest, "At least one subject entry is required")
		return
	}

	entries := make([]rpc.SubjectScores, 0, len(reqBody.Entries))
	for _, e := range reqBody.Entries {
		entries = append(entries, rpc.SubjectScores{SubjectCode: e.SubjectCode, Scores: e.scores()})
	}

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.SaveScores(ctx, &rpc.SaveScoresRequest{
		FacultyUserID: session.User.ID,
		RollNo:        rollNo,
		Entries:       entries,
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	code := http.StatusOK
	if grpcResp.Failed > 0 {
		code = http.StatusMultiStatus
	}

	util.WriteJSON(w, code, map[string]interface{}{
		"success": grpcResp.Failed == 0,
		"student": grpcResp.Student,
		"results": grpcResp.Results,
		"saved":   grpcResp.Saved,
		"failed":  grpcResp.Failed,
	})
}

// SaveMarksheet handles POST /marksheets
func (h *MarksHandler) SaveMarksheet(w http.ResponseWriter, r *http.Request) {
	session, _ := util.SessionFromContext(r.Context())

	var reqBody RESTSaveMarksheetRequest
	if !decodeBody(w, r, &reqBody) {
		return
	}

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.SaveScore(ctx, &rpc.SaveScoreRequest{
		FacultyUserID: session.User.ID,
		RollNo:        reqBody.RollNo,
		RollNumber:    reqBody.RollNumber,
		Email:         reqBody.Email,
		SubjectCode:   reqBody.SubjectCode,
		Scores:        reqBody.scores(),
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Marksheet saved",
		"entry":   grpcResp.Entry,
	})
}

// LookupMarksheet handles GET /marksheets/search?query=
func (h *MarksHandler) LookupMarksheet(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.LookupMarksheet(ctx, &rpc.LookupMarksheetRequest{Query: query})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	writeMarksheet(w, grpcResp)
}

// StudentMarksheet handles GET /marksheets/student/:rollNo
// Rows the caller is assigned to are flagged editable.
func (h *MarksHandler) StudentMarksheet(w http.ResponseWriter, r *http.Request) {
	session, _ := util.SessionFromContext(r.Context())

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.GetStudentMarksheet(ctx, &rpc.GetStudentMarksheetRequest{
		CallerUserID: session.User.ID,
		RollNo:       chi.URLParam(r, "rollNo"),
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	writeMarksheet(w, grpcResp)
}

// MyMarksheet handles GET /student-dashboard/me
func (h *MarksHandler) MyMarksheet(w http.ResponseWriter, r *http.Request) {
	session, _ := util.SessionFromContext(r.Context())

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.MarksClient.GetMyMarksheet(ctx, &rpc.GetMyMarksheetRequest{UserID: session.User.ID})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	writeMarksheet(w, grpcResp)
}

func writeMarksheet(w http.ResponseWriter, resp *rpc.MarksheetResponse) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"student": resp.Student,
		"rows":    resp.Rows,
	})
}
