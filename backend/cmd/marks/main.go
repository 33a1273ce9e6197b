package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"marksportal/backend/internal/marks"
	"marksportal/backend/internal/marksheet"
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

	// Load service configuration
	config, err := shared.LoadServiceConfig("marks-service")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.ServicePort = shared.GetEnv("MARKS_SERVICE_PORT", config.ServicePort)

	if err := shared.ValidateServiceConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if shared.IsDevelopment(config) {
		shared.PrintConfig(config)
	}

	shared.InitReporter(config)
	defer shared.FlushReports()

	// Pick the store
	var (
		store marksheet.Store
		dir   marksheet.Directory
	)
	switch config.StoreBackend {
	case shared.StoreMongo:
		mongoClient, db, err := shared.ConnectMongoDB(&config.MongoDB)
		if err != nil {
			shared.ReportError(err, map[string]interface{}{"service": config.ServiceName, "stage": "mongo_connect"})
			shared.FlushReports()
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := shared.DisconnectMongoDB(mongoClient); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()

		mongoStore := mongostore.New(db)
		if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
			shared.ReportError(err, map[string]interface{}{"service": config.ServiceName, "stage": "ensure_indexes"})
			shared.FlushReports()
			log.Fatalf("Failed to create indexes: %v", err)
		}
		store, dir = mongoStore, mongoStore
	default:
		log.Println("WARN: Using the in-memory store; marks are lost on restart")
		memStore := seed.MarksStore()
		store, dir = memStore, memStore
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(config.GRPC.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(config.GRPC.MaxSendMsgSize),
		grpc.UnaryInterceptor(shared.UnaryLoggingInterceptor(config.ServiceName)),
	)

	rpc.RegisterMarksServiceServer(grpcServer, marks.NewMarksService(store, dir))

	// Register health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(rpc.MarksServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	listener, err := net.Listen("tcp", ":"+config.ServicePort)
	if err != nil {
		shared.ReportError(err, map[string]interface{}{"service": config.ServiceName, "stage": "listen"})
		shared.FlushReports()
		log.Fatalf("Failed to listen on port %s: %v", config.ServicePort, err)
	}

	go func() {
		log.Printf("Marks Service is listening on port %s", config.ServicePort)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Marks Service...")
	healthServer.SetServingStatus(rpc.MarksServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	log.Println("Marks Service stopped")
}
