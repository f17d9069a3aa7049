package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type contextKey string

const (
	actorKey    contextKey = "actor_id"
	merchantKey contextKey = "merchant_id"
)

// SystemActor stamps changes made by background consumers.
const SystemActor = "system"

func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

func WithMerchant(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, merchantKey, merchantID)
}

// GetActorID returns the acting principal put on the context by the
// interceptor, falling back to the x-user-id metadata.
func GetActorID(ctx context.Context) string {
	if val, ok := ctx.Value(actorKey).(string); ok {
		return val
	}
	return fromMetadata(ctx, "x-user-id")
}

func GetMerchantID(ctx context.Context) string {
	if val, ok := ctx.Value(merchantKey).(string); ok {
		return val
	}
	return fromMetadata(ctx, "x-merchant-id")
}

func fromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(key); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
