package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"marksportal/backend/internal/gateway/handlers"
	"marksportal/backend/internal/gateway/util"
	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(clients *ServiceClients, cfg *shared.GatewayConfig) *chi.Mux {
	r := chi.NewRouter()
	metrics := NewMetrics()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{AuthClient: clients.AuthClient, Timeout: cfg.RPCTimeout}
	marksHandler := &handlers.MarksHandler{MarksClient: clients.MarksClient, Timeout: cfg.RPCTimeout}

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	})

	// 3. Define Routes
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/marksheets/ping", marksHandler.Ping)
		r.Get("/marksheets/search", marksHandler.LookupMarksheet)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(clients.AuthClient, cfg.RPCTimeout))

			r.Get("/auth/me", authHandler.Me)
			r.Get("/students", marksHandler.ListStudents)
			r.Get("/subjects", marksHandler.ListSubjects)
			r.Get("/marksheets/student/{rollNo}", marksHandler.StudentMarksheet)

			// Faculty
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(shared.RoleFaculty))

				r.Get("/faculty-profile/me", marksHandler.FacultyProfile)
				r.Get("/marksfeed/search", marksHandler.SearchStudent)
				r.Post("/marksfeed/{rollNo}", marksHandler.SaveScores)
				r.Post("/marksheets", marksHandler.SaveMarksheet)
			})

			// Student
			r.With(RequireRole(shared.RoleStudent)).Get("/student-dashboard/me", marksHandler.MyMarksheet)
		})
	})

	return r
}

// AuthMiddleware creates a middleware that validates JWT tokens via the Auth Service.
func AuthMiddleware(authClient rpc.AuthServiceClient, timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Validate via gRPC
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			validateResp, err := authClient.ValidateToken(ctx, &rpc.ValidateTokenRequest{Token: tokenStr})
			if err != nil {
				util.HandleGRPCError(w, err)
				return
			}

			if !validateResp.Valid || validateResp.User == nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// 3. Inject the session into the request context
			session := util.Session{User: *validateResp.User, Token: tokenStr}
			next.ServeHTTP(w, r.WithContext(util.WithSession(r.Context(), session)))
		})
	}
}

// RequireRole rejects callers whose session role is not one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := util.SessionFromContext(r.Context())
			if !ok {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !session.HasRole(roles...) {
				util.WriteJSONError(w, http.StatusForbidden, "Access denied: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
