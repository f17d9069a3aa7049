package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/internal/pkg/metrics"
)

// ContextInterceptor copies the caller identity from metadata onto the
// context so use cases never read transport state.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if actor := auth.GetActorID(ctx); actor != "" {
			ctx = auth.WithActor(ctx, actor)
		}
		if merchant := auth.GetMerchantID(ctx); merchant != "" {
			ctx = auth.WithMerchant(ctx, merchant)
		}
		return handler(ctx, req)
	}
}

// ObservabilityInterceptor logs and measures every unary call.
func ObservabilityInterceptor(log logger.ZapLogger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		if m != nil {
			m.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
			m.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		}

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
			zap.String("actor", auth.GetActorID(ctx)),
		}
		if err != nil {
			log.Warn("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("gRPC call", fields...)
		}
		return resp, err
	}
}
