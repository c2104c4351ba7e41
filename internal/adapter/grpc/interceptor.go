package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/assetmanager-backend/internal/auth"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticator resolves the account behind a verified token
type Authenticator interface {
	Authenticate(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type contextKey string

const claimsContextKey contextKey = "claims"

// publicMethods skip authentication
var publicMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
	"/grpc.health.v1.Health/List":  true,
}

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the bearer token from the authorization metadata, checks the account is
// still active and stores the claims in the context. Health checks are public.
func AuthInterceptor(verifier TokenVerifier, accounts Authenticator) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		token := authHeaders[0]
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = strings.TrimSpace(token[7:])
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		userID, err := claims.UserID()
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		if _, err := accounts.Authenticate(ctx, userID); err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
			return nil, status.Error(codes.Internal, "internal error")
		}

		return handler(context.WithValue(ctx, claimsContextKey, claims), req)
	}
}

// LoggingInterceptor logs every unary call with its status code
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		event := log.Info()
		if code != codes.OK {
			event = log.Warn()
		}
		event.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration_ms", time.Since(start)).
			Msg("gRPC request")

		return resp, err
	}
}

// userIDFromContext returns the authenticated caller
func userIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing credentials")
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "invalid subject")
	}
	return id, nil
}
