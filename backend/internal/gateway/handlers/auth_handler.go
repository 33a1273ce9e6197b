package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"marksportal/backend/internal/gateway/util"
	"marksportal/backend/internal/rpc"
)

const defaultRPCTimeout = 5 * time.Second

// AuthHandler holds the gRPC client for the Auth Service.
type AuthHandler struct {
	AuthClient rpc.AuthServiceClient
	Timeout    time.Duration
}

// RESTLoginRequest mirrors the expected JSON input for /auth/login
type RESTLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

// decodeBody reads a JSON request body, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			util.WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return false
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func rpcContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRPCTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTLoginRequest
	if !decodeBody(w, r, &reqBody) {
		return
	}

	if reqBody.Identifier == "" || reqBody.Password == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "Identifier and password are required")
		return
	}

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.AuthClient.Login(ctx, &rpc.LoginRequest{
		Identifier: reqBody.Identifier,
		Password:   reqBody.Password,
		Role:       reqBody.Role,
	})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	if !grpcResp.Success {
		util.WriteJSONError(w, http.StatusUnauthorized, grpcResp.Message)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"token":      grpcResp.Token,
		"expires_at": grpcResp.ExpiresAt,
		"user":       grpcResp.User,
	})
}

// Logout handles POST /auth/logout. A missing token still logs out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Logged out successfully",
		})
		return
	}

	ctx, cancel := rpcContext(r, h.Timeout)
	defer cancel()

	grpcResp, err := h.AuthClient.Logout(ctx, &rpc.LogoutRequest{Token: token})
	if err != nil {
		util.HandleGRPCError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": grpcResp.Success,
		"message": grpcResp.Message,
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := util.SessionFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    session.User,
	})
}
