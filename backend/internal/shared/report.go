// ============================================================================
// backend/internal/shared/report.go
// Error reporting (Rollbar) and request logging for gRPC services
// ============================================================================

package shared

import (
	"context"
	"log"
	"time"

	"github.com/rollbar/rollbar-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InitReporter configures the process-wide Rollbar client. Reporting stays
// disabled when no token is configured.
func InitReporter(config *ServiceConfig) {
	rollbar.SetToken(config.Reporting.RollbarToken)
	rollbar.SetEnvironment(config.Environment)
	rollbar.SetCodeVersion(config.Reporting.CodeVersion)
	rollbar.SetServerRoot("marksportal/backend")
	rollbar.SetEnabled(config.Reporting.RollbarToken != "")

	if config.Reporting.RollbarToken == "" {
		log.Printf("INFO: Error reporting disabled for %s", config.ServiceName)
	}
}

// ReportError logs err and forwards it to Rollbar with optional context.
func ReportError(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	log.Printf("ERROR: %v", err)
	if extras != nil {
		rollbar.Error(err, extras)
		return
	}
	rollbar.Error(err)
}

// FlushReports blocks until queued reports are sent.
func FlushReports() {
	rollbar.Wait()
}

// UnaryLoggingInterceptor logs each RPC with its status code and latency.
// Internal and Unknown failures are also reported to Rollbar.
func UnaryLoggingInterceptor(serviceName string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		elapsed := time.Since(start)

		switch code {
		case codes.OK:
			log.Printf("INFO: [%s] %s OK (%v)", serviceName, info.FullMethod, elapsed)
		case codes.Internal, codes.Unknown:
			log.Printf("ERROR: [%s] %s %s (%v): %v", serviceName, info.FullMethod, code, elapsed, err)
			rollbar.Error(err, map[string]interface{}{
				"service": serviceName,
				"method":  info.FullMethod,
			})
		default:
			log.Printf("WARN: [%s] %s %s (%v): %s", serviceName, info.FullMethod, code, elapsed, status.Convert(err).Message())
		}

		return resp, err
	}
}
