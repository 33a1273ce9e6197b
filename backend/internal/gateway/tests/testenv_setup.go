package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	// Gateway Implementation
	"marksportal/backend/internal/gateway"

	// Backend Service Implementations
	auth_svc "marksportal/backend/internal/auth"
	marks_svc "marksportal/backend/internal/marks"
	"marksportal/backend/internal/marksheet"

	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/shared"
)

const bufSize = 1024 * 1024

const testPassword = "secret123"

// TestEnv holds all the running components for the test
type TestEnv struct {
	Router http.Handler
	Marks  *marksheet.MemoryStore
}

func seedUsers(t *testing.T) *auth_svc.MemoryUserStore {
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	hash := string(hashed)

	return auth_svc.NewMemoryUserStore(
		shared.User{ID: "usr_fac1", Email: "sen@uni.edu", PasswordHash: hash, Role: shared.RoleFaculty, Name: "Dr. Sen", IsActive: true},
		shared.User{ID: "usr_fac2", Email: "iyer@uni.edu", PasswordHash: hash, Role: shared.RoleFaculty, Name: "Dr. Iyer", IsActive: true},
		shared.User{ID: "usr_stu1", Email: "asha@uni.edu", RollNo: "CS2023001", PasswordHash: hash, Role: shared.RoleStudent, Name: "Asha Rao", IsActive: true},
	)
}

func seedMarks() *marksheet.MemoryStore {
	store := marksheet.NewMemoryStore()
	store.AddStudents(
		shared.Student{ID: "stu_1", RollNo: "cs2023001", Name: "Asha Rao", Email: "asha@uni.edu", Department: "CSE", UserID: "usr_stu1"},
		shared.Student{ID: "stu_2", RollNumber: "ME2023007", Name: "Ravi Kumar", Department: "ME"},
	)
	store.AddSubjects(
		shared.Subject{ID: "sub_cs101", Code: "CS101", Name: "Programming", Department: "CSE"},
		shared.Subject{ID: "sub_cs102", Code: "CS102", Name: "Data Structures", Department: "CSE"},
		shared.Subject{ID: "sub_me201", Code: "ME201", Name: "Thermodynamics", Department: "ME"},
	)
	store.PutFaculty(shared.FacultyProfile{ID: "fac_1", UserID: "usr_fac1", Department: "CSE", ProfileSubjects: []string{"CS101", "CS102", "ME201"}})
	store.PutFaculty(shared.FacultyProfile{ID: "fac_2", UserID: "usr_fac2", Department: "ME", Subjects: []string{"ME201"}})
	return store
}

// setupGatewayTestEnv spins up the entire backend stack in-memory
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	createService := func() (*grpc.Server, *bufconn.Listener) {
		return grpc.NewServer(), bufconn.Listen(bufSize)
	}
	serve := func(s *grpc.Server, lis *bufconn.Listener) {
		go func() {
			if err := s.Serve(lis); err != nil {
				log.Printf("Server exited with error: %v", err)
			}
		}()
	}

	// --- 1. Initialize Backend Services ---
	sAuth, lAuth := createService()
	authCfg := &shared.ServiceConfig{Security: shared.SecurityConfig{JWTSecret: "test-secret", JWTExpirationHours: 1, BCryptCost: bcrypt.MinCost}}
	rpc.RegisterAuthServiceServer(sAuth, auth_svc.NewAuthService(seedUsers(t), authCfg))
	serve(sAuth, lAuth)

	sMarks, lMarks := createService()
	marks := seedMarks()
	rpc.RegisterMarksServiceServer(sMarks, marks_svc.NewMarksService(marks, marks))
	serve(sMarks, lMarks)

	t.Cleanup(func() {
		sAuth.Stop()
		sMarks.Stop()
	})

	// --- 2. Connect Gateway to Backends ---
	dial := func(lis *bufconn.Listener) *grpc.ClientConn {
		opts := append(rpc.DialOptions(),
			grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		conn, err := grpc.NewClient("passthrough://bufnet", opts...)
		if err != nil {
			t.Fatalf("Failed to dial bufnet: %v", err)
		}
		return conn
	}

	clients := gateway.NewServiceClientsFromConns(dial(lAuth), dial(lMarks))
	t.Cleanup(clients.Close)

	// --- 3. Initialize Gateway Router ---
	cfg := &shared.GatewayConfig{
		RPCTimeout: 5 * time.Second,
		CORS: shared.CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}

	return &TestEnv{
		Router: gateway.SetupRoutes(clients, cfg),
		Marks:  marks,
	}
}

// do sends a request through the router and decodes the JSON body.
func (env *TestEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)

	var resp map[string]interface{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: body is not JSON: %s", method, path, rr.Body.String())
		}
	}
	return rr.Code, resp
}

// login returns a token for identifier, failing the test otherwise.
func (env *TestEnv) login(t *testing.T, identifier string) string {
	t.Helper()

	code, resp := env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   testPassword,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%v)", identifier, code, resp)
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("login %s: token missing", identifier)
	}
	return token
}
