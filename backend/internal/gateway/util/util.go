package util

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses. Reason names the authorization
// rule that refused a request; Fields maps input fields to problems.
type JSONError struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var response interface{}

	// A map with a "success" key is already in the final shape
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		response = payload
	} else if status >= 200 && status < 300 {
		response = JSONResponse{Success: true, Data: payload}
	} else {
		response = JSONError{Success: false, Message: "Unknown error"}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, JSONError{Success: false, Message: message})
}

func writeError(w http.ResponseWriter, status int, body JSONError) {
	log.Printf("HTTP Error %d: %s", status, body.Message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing JSON error response: %v", err)
	}
}

// HandleGRPCError translates gRPC status errors to HTTP responses, carrying
// over ErrorInfo reasons and BadRequest field violations.
func HandleGRPCError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error: Non-gRPC error occurred")
		return
	}

	body := JSONError{Success: false, Message: st.Message()}
	for _, d := range st.Details() {
		switch detail := d.(type) {
		case *errdetails.ErrorInfo:
			body.Reason = detail.Reason
		case *errdetails.BadRequest:
			body.Fields = make(map[string]string, len(detail.FieldViolations))
			for _, v := range detail.FieldViolations {
				body.Fields[v.Field] = v.Description
			}
		}
	}

	switch st.Code() {
	case codes.InvalidArgument:
		writeError(w, http.StatusBadRequest, body)
	case codes.Unauthenticated:
		writeError(w, http.StatusUnauthorized, body)
	case codes.PermissionDenied:
		writeError(w, http.StatusForbidden, body)
	case codes.NotFound:
		writeError(w, http.StatusNotFound, body)
	case codes.AlreadyExists:
		writeError(w, http.StatusConflict, body)
	case codes.Unavailable:
		WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable: The backend service is unreachable.")
	case codes.DeadlineExceeded:
		WriteJSONError(w, http.StatusGatewayTimeout, "Service Timeout: The backend service took too long to respond.")
	default:
		writeError(w, http.StatusInternalServerError, body)
	}
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
