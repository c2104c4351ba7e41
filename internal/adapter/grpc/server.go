package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// SnapshotServiceName is the fully qualified gRPC service name
const SnapshotServiceName = "assetmanager.v1.SnapshotService"

// SnapshotServiceServer is the server API for SnapshotService
type SnapshotServiceServer interface {
	// Capture takes today's snapshot for the caller
	Capture(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Latest returns the caller's most recent snapshot
	Latest(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// SnapshotServiceDesc describes SnapshotService. Requests and responses are
// well-known protobuf types, so no generated code is needed.
var SnapshotServiceDesc = grpc.ServiceDesc{
	ServiceName: SnapshotServiceName,
	HandlerType: (*SnapshotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Capture", Handler: unaryHandler("Capture", SnapshotServiceServer.Capture)},
		{MethodName: "Latest", Handler: unaryHandler("Latest", SnapshotServiceServer.Latest)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "assetmanager/v1/snapshot.proto",
}

func unaryHandler(
	method string,
	call func(SnapshotServiceServer, context.Context, *emptypb.Empty) (*structpb.Struct, error),
) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + SnapshotServiceName + "/" + method

	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SnapshotServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SnapshotServiceServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Snapshots is the part of the portfolio aggregator exposed over gRPC
type Snapshots interface {
	TakeSnapshot(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSnapshot, error)
	Latest(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSnapshot, error)
}

// Server implements SnapshotServiceServer
type Server struct {
	Snapshots Snapshots
}

// NewServer creates a new gRPC server instance
func NewServer(snapshots Snapshots) *Server {
	return &Server{Snapshots: snapshots}
}

// Capture handles the Capture RPC
func (s *Server) Capture(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Snapshots.TakeSnapshot(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return snapshotToStruct(snapshot)
}

// Latest handles the Latest RPC
func (s *Server) Latest(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Snapshots.Latest(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return snapshotToStruct(snapshot)
}

// snapshotToStruct renders a snapshot with decimals as strings
func snapshotToStruct(s *domain.PortfolioSnapshot) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]interface{}{
		"id":                  s.ID.String(),
		"snapshot_date":       s.SnapshotDate.Format(domain.DateLayout),
		"total_investment":    s.TotalInvestment.String(),
		"total_current_value": s.TotalCurrentValue.String(),
		"total_profit_loss":   s.TotalProfitLoss.String(),
		"profit_rate":         s.ProfitRate.String(),
		"asset_count":         s.AssetCount,
		"crypto_value":        s.CryptoValue.String(),
		"stock_value":         s.StockValue.String(),
		"notes":               s.Notes,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode snapshot: %v", err)
	}
	return out, nil
}

// NewGRPCServer builds the ops server with health, reflection and SnapshotService.
// The returned health server lets the caller flip serving status on shutdown.
func NewGRPCServer(snapshots Snapshots, verifier TokenVerifier, accounts Authenticator, log zerolog.Logger) (*grpc.Server, *health.Server) {
	log = log.With().Str("component", "grpc").Logger()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(log),
			AuthInterceptor(verifier, accounts),
		),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(SnapshotServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	grpcServer.RegisterService(&SnapshotServiceDesc, NewServer(snapshots))
	reflection.Register(grpcServer)

	return grpcServer, healthServer
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
