package grpc

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/simaogato/assetmanager-backend/internal/auth"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

func issueToken(t *testing.T, tokens *auth.TokenManager, id uuid.UUID) string {
	t.Helper()
	token, _, err := tokens.Issue(&domain.User{ID: id, Email: "ops@example.com", Role: domain.RoleUser})
	require.NoError(t, err)
	return token
}

// fakeAccounts treats every account as active unless listed as deactivated
type fakeAccounts struct {
	deactivated map[uuid.UUID]bool
	err         error
}

func (f *fakeAccounts) Authenticate(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.deactivated[userID] {
		return nil, fmt.Errorf("%w: account is deactivated", domain.ErrUnauthorized)
	}
	return &domain.User{ID: userID, IsActive: true}, nil
}

func TestAuthInterceptor(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "assetmanager", time.Hour)
	userID := uuid.New()
	validToken := issueToken(t, tokens, userID)
	inactiveID := uuid.New()
	inactiveToken := issueToken(t, tokens, inactiveID)
	accounts := &fakeAccounts{deactivated: map[uuid.UUID]bool{inactiveID: true}}
	interceptor := AuthInterceptor(tokens, accounts)

	tests := []struct {
		name           string
		ctx            context.Context
		method         string
		handlerCalled  bool
		expectedCode   codes.Code
		expectedErrMsg string
	}{
		{
			name: "Valid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", validToken),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Valid Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+validToken),
			),
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
		{
			name: "Invalid Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "wrong-token"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name: "Deactivated Account",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", "Bearer "+inactiveToken),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "deactivated",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			handlerCalled:  false,
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
		{
			name:          "Health Check Is Public",
			ctx:           context.Background(),
			method:        "/grpc.health.v1.Health/Check",
			handlerCalled: true,
			expectedCode:  codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				handlerCalled = true
				return "success", nil
			}

			method := tt.method
			if method == "" {
				method = "/assetmanager.v1.SnapshotService/Latest"
			}
			info := &grpc.UnaryServerInfo{FullMethod: method}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func TestAuthInterceptor_StoresCaller(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "assetmanager", time.Hour)
	userID := uuid.New()
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", issueToken(t, tokens, userID)))

	var got uuid.UUID
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		id, err := userIDFromContext(ctx)
		got = id
		return nil, err
	}

	_, err := AuthInterceptor(tokens, &fakeAccounts{})(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, handler)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestAuthInterceptor_AccountLookupFailureIsInternal(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "assetmanager", time.Hour)
	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", issueToken(t, tokens, uuid.New())))
	accounts := &fakeAccounts{err: fmt.Errorf("%w: connection refused", domain.ErrPersistence)}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}

	_, err := AuthInterceptor(tokens, accounts)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, handler)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestUserIDFromContext_Missing(t *testing.T) {
	_, err := userIDFromContext(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
