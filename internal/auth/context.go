package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

const (
	UserIDHeader   = "x-user-id"
	LanguageHeader = "accept-language"
)

type actorKey struct{}

// WithActor stores the acting user id on ctx.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// GetActorID returns the acting user id, from the context if an interceptor stored it, else
// from the incoming metadata. Empty when unauthenticated.
func GetActorID(ctx context.Context) string {
	if val, ok := ctx.Value(actorKey{}).(string); ok {
		return val
	}
	return firstMetadata(ctx, UserIDHeader)
}

func GetLanguage(ctx context.Context) string {
	return firstMetadata(ctx, LanguageHeader)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}
