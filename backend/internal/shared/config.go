// ============================================================================
// backend/internal/shared/config.go
// Shared configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServiceConfig holds common configuration for all services
type ServiceConfig struct {
	ServiceName string
	ServicePort string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	// StoreBackend selects the persistence layer: "mongo" or "memory"
	StoreBackend string

	// MongoDB Configuration
	MongoDB MongoConfig

	// gRPC Configuration
	GRPC GRPCConfig

	// Security Configuration
	Security SecurityConfig

	// Error reporting (Rollbar)
	Reporting ReportingConfig
}

// GRPCConfig holds gRPC-specific configuration
type GRPCConfig struct {
	MaxRecvMsgSize    int // Maximum receive message size in bytes
	MaxSendMsgSize    int // Maximum send message size in bytes
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int
	BCryptCost         int
}

// ReportingConfig configures the remote error reporter.
// An empty token disables reporting.
type ReportingConfig struct {
	RollbarToken string
	CodeVersion  string
}

// GatewayConfig holds gateway-specific configuration
type GatewayConfig struct {
	ServiceConfig
	HTTPPort string

	// Service addresses
	AuthServiceAddr  string
	MarksServiceAddr string

	// RPCTimeout bounds every call the gateway makes to a backend service
	RPCTimeout time.Duration

	// CORS Configuration
	CORS CORSConfig
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("WARN: %s file not found, using system environment variables", envFile)
		return err
	}

	log.Printf("INFO: Loaded environment from %s", envFile)
	return nil
}

// LoadServiceConfig loads common service configuration from environment
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	return loadServiceConfig(serviceName, strings.ToLower(GetEnv("STORE_BACKEND", StoreMongo)))
}

func loadServiceConfig(serviceName, storeBackend string) (*ServiceConfig, error) {
	config := &ServiceConfig{
		ServiceName:  serviceName,
		ServicePort:  GetEnv("SERVICE_PORT", GetServicePort(serviceName)),
		Environment:  GetEnv("ENVIRONMENT", "development"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		StoreBackend: storeBackend,
	}

	config.MongoDB = MongoConfig{
		URI:            GetEnv("MONGO_URI", ""),
		Database:       GetEnv("MONGO_DB_NAME", "marksportal"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 5)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}
	if config.StoreBackend == StoreMongo && config.MongoDB.URI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.GRPC = GRPCConfig{
		MaxRecvMsgSize:    GetIntEnv("GRPC_MAX_RECV_MSG_SIZE", 4*1024*1024),
		MaxSendMsgSize:    GetIntEnv("GRPC_MAX_SEND_MSG_SIZE", 4*1024*1024),
		ConnectionTimeout: GetDurationEnv("GRPC_CONNECTION_TIMEOUT", 10*time.Second),
		RequestTimeout:    GetDurationEnv("GRPC_REQUEST_TIMEOUT", 30*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret:          GetEnv("JWT_SECRET", ""),
		JWTExpirationHours: GetIntEnv("JWT_EXPIRATION_HOURS", 24),
		BCryptCost:         GetIntEnv("BCRYPT_COST", 10),
	}

	config.Reporting = ReportingConfig{
		RollbarToken: GetEnv("ROLLBAR_TOKEN", ""),
		CodeVersion:  GetEnv("CODE_VERSION", "dev"),
	}

	if config.Security.JWTSecret == "" && serviceName == "auth-service" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required for auth service")
	}

	return config, nil
}

// LoadGatewayConfig loads gateway-specific configuration.
// The gateway owns no storage, so the Mongo requirement is skipped.
func LoadGatewayConfig() (*GatewayConfig, error) {
	baseConfig, err := loadServiceConfig("gateway", StoreMemory)
	if err != nil {
		return nil, err
	}

	config := &GatewayConfig{
		ServiceConfig:    *baseConfig,
		HTTPPort:         GetEnv("HTTP_PORT", DefaultGatewayHTTPPort),
		AuthServiceAddr:  GetEnv("AUTH_SERVICE_ADDR", "localhost:"+DefaultAuthServicePort),
		MarksServiceAddr: GetEnv("MARKS_SERVICE_ADDR", "localhost:"+DefaultMarksServicePort),
		RPCTimeout:       GetDurationEnv("GATEWAY_RPC_TIMEOUT", 5*time.Second),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARN: Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("WARN: Invalid boolean value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default value
// Supports format like "30s", "5m", "1h"
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("WARN: Invalid duration value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if config.ServicePort == "" {
		return fmt.Errorf("service port is required")
	}

	switch config.StoreBackend {
	case StoreMongo:
		if config.MongoDB.URI == "" {
			return fmt.Errorf("MongoDB URI is required")
		}
		if config.MongoDB.Database == "" {
			return fmt.Errorf("MongoDB database name is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", config.StoreBackend)
	}

	return nil
}

// ValidateGatewayConfig validates gateway configuration
func ValidateGatewayConfig(config *GatewayConfig) error {
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}

	if config.AuthServiceAddr == "" {
		return fmt.Errorf("auth service address is required")
	}

	if config.MarksServiceAddr == "" {
		return fmt.Errorf("marks service address is required")
	}

	if config.RPCTimeout <= 0 {
		return fmt.Errorf("gateway RPC timeout must be positive")
	}

	return nil
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig prints configuration (sanitized) for debugging
func PrintConfig(config *ServiceConfig) {
	log.Println("=== Service Configuration ===")
	log.Printf("Service Name: %s", config.ServiceName)
	log.Printf("Service Port: %s", config.ServicePort)
	log.Printf("Environment: %s", config.Environment)
	log.Printf("Log Level: %s", config.LogLevel)
	log.Printf("Store Backend: %s", config.StoreBackend)
	if config.StoreBackend == StoreMongo {
		log.Println("=== MongoDB Configuration ===")
		log.Printf("Database: %s", config.MongoDB.Database)
		log.Printf("Max Pool Size: %d", config.MongoDB.MaxPoolSize)
		log.Printf("Min Pool Size: %d", config.MongoDB.MinPoolSize)
	}
	log.Println("=== gRPC Configuration ===")
	log.Printf("Max Recv Msg Size: %d bytes", config.GRPC.MaxRecvMsgSize)
	log.Printf("Max Send Msg Size: %d bytes", config.GRPC.MaxSendMsgSize)
	log.Println("=== Security Configuration ===")
	log.Printf("JWT Expiration: %d hours", config.Security.JWTExpirationHours)
	log.Printf("BCrypt Cost: %d", config.Security.BCryptCost)
	log.Printf("Error Reporting: %t", config.Reporting.RollbarToken != "")
	log.Println("=============================")
}

// PrintGatewayConfig prints gateway configuration (sanitized)
func PrintGatewayConfig(config *GatewayConfig) {
	log.Println("=== Gateway Configuration ===")
	log.Printf("Environment: %s", config.Environment)
	log.Printf("HTTP Port: %s", config.HTTPPort)
	log.Printf("Auth Service: %s", config.AuthServiceAddr)
	log.Printf("Marks Service: %s", config.MarksServiceAddr)
	log.Printf("RPC Timeout: %v", config.RPCTimeout)
	log.Println("=== CORS Configuration ===")
	log.Printf("Allowed Origins: %v", config.CORS.AllowedOrigins)
	log.Printf("Allowed Methods: %v", config.CORS.AllowedMethods)
	log.Printf("Allow Credentials: %t", config.CORS.AllowCredentials)
	log.Println("=============================")
}

// ============================================================================
// Default Port Mapping
// ============================================================================

const (
	DefaultGatewayHTTPPort  = "8080"
	DefaultAuthServicePort  = "50051"
	DefaultMarksServicePort = "50052"
)

// GetServicePort returns the default port for a service
func GetServicePort(serviceName string) string {
	ports := map[string]string{
		"gateway":       DefaultGatewayHTTPPort,
		"auth-service":  DefaultAuthServicePort,
		"marks-service": DefaultMarksServicePort,
	}

	if port, exists := ports[serviceName]; exists {
		return port
	}

	return DefaultAuthServicePort
}

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServiceConfig) bool {
	return config.Environment == "development"
}
