package gateway

import (
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"marksportal/backend/internal/rpc"
	"marksportal/backend/internal/shared"
)

// ServiceClients holds the gRPC clients for the backend services.
type ServiceClients struct {
	AuthClient  rpc.AuthServiceClient
	MarksClient rpc.MarksServiceClient

	// Keep connections to close them later when the gateway shuts down
	conns []*grpc.ClientConn
}

// ConnectGRPC creates a client connection speaking the JSON codec.
// Internal node traffic uses insecure credentials.
func ConnectGRPC(addr string) (*grpc.ClientConn, error) {
	log.Printf("INFO: Connecting to gRPC service at %s...", addr)

	opts := append(rpc.DialOptions(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return conn, nil
}

// NewServiceClients initializes the gRPC clients from the gateway config.
func NewServiceClients(cfg *shared.GatewayConfig) (*ServiceClients, error) {
	authConn, err := ConnectGRPC(cfg.AuthServiceAddr)
	if err != nil {
		return nil, err
	}

	marksConn, err := ConnectGRPC(cfg.MarksServiceAddr)
	if err != nil {
		authConn.Close()
		return nil, err
	}

	return NewServiceClientsFromConns(authConn, marksConn), nil
}

// NewServiceClientsFromConns wraps already-open connections.
func NewServiceClientsFromConns(authConn, marksConn *grpc.ClientConn) *ServiceClients {
	return &ServiceClients{
		AuthClient:  rpc.NewAuthServiceClient(authConn),
		MarksClient: rpc.NewMarksServiceClient(marksConn),
		conns:       []*grpc.ClientConn{authConn, marksConn},
	}
}

// Close closes all underlying gRPC connections.
func (sc *ServiceClients) Close() {
	for _, conn := range sc.conns {
		if err := conn.Close(); err != nil {
			log.Printf("WARN: Error closing gRPC connection: %v", err)
		}
	}
}
