package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/shared"
)

const tokenIssuer = "marksportal"

// ErrUserNotFound is returned by a UserStore when no account matches.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the account and session storage the auth service needs.
type UserStore interface {
	// FindUserByIdentifier matches an email address or a roll number.
	FindUserByIdentifier(ctx context.Context, identifier string) (shared.User, error)
	FindUserByID(ctx context.Context, id string) (shared.User, error)
	CreateSession(ctx context.Context, session shared.Session) error
	// DeleteSessionsByToken removes every session carrying token and
	// reports how many were removed.
	DeleteSessionsByToken(ctx context.Context, token string) (int64, error)
	SessionExists(ctx context.Context, token string) (bool, error)
}

// AuthService implements the gRPC AuthService
type AuthService struct {
	rpc.UnimplementedAuthServiceServer
	store  UserStore
	config *shared.ServiceConfig
}

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new AuthService instance
func NewAuthService(store UserStore, config *shared.ServiceConfig) *AuthService {
	return &AuthService{
		store:  store,
		config: config,
	}
}

// Login authenticates a user and returns a JWT
func (s *AuthService) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	if req.Identifier == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "identifier and password are required")
	}
	if req.Role != "" && !shared.IsValidRole(req.Role) {
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", req.Role)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Find User (by Email OR Roll Number)
	user, err := s.store.FindUserByIdentifier(queryCtx, req.Identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		log.Printf("ERROR: Finding user %s: %v", req.Identifier, err)
		return nil, status.Error(codes.Internal, "database error")
	}

	// 2. Check Password (BCrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	if !user.IsActive {
		return nil, status.Error(codes.PermissionDenied, "account is inactive")
	}

	// 3. The role picked on the login form must match the account
	if req.Role != "" && req.Role != user.Role {
		return nil, status.Errorf(codes.PermissionDenied, "account is not registered as %s", req.Role)
	}

	// 4. Generate JWT using Shared Config
	tokenString, expiresAt, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to generate token")
	}

	// 5. Create Session (allows for server-side logout/revocation)
	session := shared.Session{
		ID:        shared.GenerateID("sess"),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateSession(queryCtx, session); err != nil {
		log.Printf("ERROR: Creating session for %s: %v", user.ID, err)
		return nil, status.Error(codes.Internal, "failed to create session")
	}

	return &rpc.LoginResponse{
		Success:   true,
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      &user,
		Message:   "login successful",
	}, nil
}

// Logout invalidates the user's session
func (s *AuthService) Logout(ctx context.Context, req *rpc.LogoutRequest) (*rpc.LogoutResponse, error) {
	if req.Token == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	deleted, err := s.store.DeleteSessionsByToken(queryCtx, req.Token)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to logout")
	}

	if deleted == 0 {
		// Logout is idempotent from the client's point of view
		return &rpc.LogoutResponse{Success: true, Message: "session already expired or invalid"}, nil
	}

	return &rpc.LogoutResponse{Success: true, Message: "logout successful"}, nil
}

// ValidateToken checks if a token is valid and active
func (s *AuthService) ValidateToken(ctx context.Context, req *rpc.ValidateTokenRequest) (*rpc.ValidateTokenResponse, error) {
	if req.Token == "" {
		return &rpc.ValidateTokenResponse{Valid: false, Message: "token missing"}, nil
	}

	// 1. Parse and Verify Signature locally
	token, claims, err := s.parseToken(req.Token)
	if err != nil || !token.Valid {
		return &rpc.ValidateTokenResponse{Valid: false, Message: "invalid token signature"}, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 2. Revocation Check
	exists, err := s.store.SessionExists(queryCtx, req.Token)
	if err != nil || !exists {
		return &rpc.ValidateTokenResponse{Valid: false, Message: "session expired or revoked"}, nil
	}

	// 3. Fetch User Details
	user, err := s.store.FindUserByID(queryCtx, claims.UserID)
	if err != nil {
		return &rpc.ValidateTokenResponse{Valid: false, Message: "user not found"}, nil
	}

	if !user.IsActive {
		return &rpc.ValidateTokenResponse{Valid: false, Message: "account inactive"}, nil
	}

	return &rpc.ValidateTokenResponse{
		Valid: true,
		User:  &user,
	}, nil
}

// HashPassword hashes a password with the configured bcrypt cost
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// generateToken creates a signed JWT using Shared Config
func (s *AuthService) generateToken(userID, role string) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.Security.JWTExpirationHours) * time.Hour)

	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens unique even when issued in the same second
			ID:        shared.GenerateID("jti"),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))

	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature and extracts claims
func (s *AuthService) parseToken(tokenString string) (*jwt.Token, *CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Security.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer))

	return token, claims, err
}
