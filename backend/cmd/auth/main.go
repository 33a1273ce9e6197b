package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"marksportal/backend/internal/auth"
	"marksportal/backend/internal/mongostore"
	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/seed"
	"marksportal/backend/internal/shared"
)

func main() {
	// Load environment variables
	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// 1. Load Configuration (validates JWT_SECRET is present)
	cfg, err := shared.LoadServiceConfig("auth-service")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ServicePort = shared.GetEnv("AUTH_SERVICE_PORT", cfg.ServicePort)

	if err := shared.ValidateServiceConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	shared.InitReporter(cfg)
	defer shared.FlushReports()

	// 2. Pick the account store
	var store auth.UserStore
	switch cfg.StoreBackend {
	case shared.StoreMongo:
		client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
		if err != nil {
			shared.ReportError(err, map[string]interface{}{"service": cfg.ServiceName, "stage": "mongo_connect"})
			shared.FlushReports()
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := shared.DisconnectMongoDB(client); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		store = mongostore.New(db)
	default:
		log.Println("WARN: Using in-memory demo accounts")
		memStore, err := seed.UserStore(cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("Failed to seed demo accounts: %v", err)
		}
		store = memStore
	}

	// 3. Create gRPC Server
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.GRPC.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.GRPC.MaxSendMsgSize),
		grpc.UnaryInterceptor(shared.UnaryLoggingInterceptor(cfg.ServiceName)),
	)

	// 4. Initialize Auth Service
	rpc.RegisterAuthServiceServer(grpcServer, auth.NewAuthService(store, cfg))

	// 5. Register Health Server
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(rpc.AuthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// 6. Start Listening
	listener, err := net.Listen("tcp", ":"+cfg.ServicePort)
	if err != nil {
		shared.ReportError(err, map[string]interface{}{"service": cfg.ServiceName, "stage": "listen"})
		shared.FlushReports()
		log.Fatalf("Failed to listen on port %s: %v", cfg.ServicePort, err)
	}

	go func() {
		log.Printf("Auth Service is listening on port %s", cfg.ServicePort)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Auth Service...")
	healthServer.SetServingStatus(rpc.AuthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	log.Println("Auth Service stopped")
}
