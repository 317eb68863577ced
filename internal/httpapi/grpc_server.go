package httpapi

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"bankfsm.org/api/bankv1"
	"bankfsm.org/internal/account"
	"bankfsm.org/internal/auth"
	"bankfsm.org/internal/obs"
	"bankfsm.org/internal/teller"
)

// GRPCServer serves bank.v1.AccountService and grpc.health.v1.Health.
type GRPCServer struct {
	healthpb.UnimplementedHealthServer

	readiness readinessChecker
	version   string
	teller    *teller.Teller
}

// NewGRPCServer creates the gRPC service wrapper. t may be nil when only the
// health service is needed.
func NewGRPCServer(r readinessChecker, version string, t *teller.Teller) *GRPCServer {
	return &GRPCServer{
		readiness: r,
		version:   version,
		teller:    t,
	}
}

// Register adds every service to s.
func (s *GRPCServer) Register(gs *grpc.Server) {
	healthpb.RegisterHealthServer(gs, s)
	if s.teller != nil {
		bankv1.RegisterAccountServiceServer(gs, s)
	}
}

// Check evaluates readiness. On failure returns gRPC Unavailable error.
func (s *GRPCServer) Check(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if s.readiness != nil {
		if err := s.readiness.Check(ctx); err != nil {
			obs.SetReady(false)
			return nil, status.Errorf(codes.Unavailable, "not ready: %v", err)
		}
	}
	obs.SetReady(true)
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func (s *GRPCServer) Apply(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req actionRequest
	if err := bankv1.Decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode action: %v", err)
	}
	act, err := req.toAction()
	if err != nil {
		return nil, grpcError(err)
	}
	receipt, err := s.teller.Dispatch(ctx, act)
	if err != nil {
		return nil, grpcError(err)
	}
	return encode(receipt)
}

func (s *GRPCServer) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.teller.State()
	return encode(accountResponse{State: st, Controls: account.Availability(st)})
}

type journalRequest struct {
	Limit int    `json:"limit"`
	After uint64 `json:"after"`
}

func (s *GRPCServer) ListJournal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req journalRequest
	if err := bankv1.Decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must be non-negative")
	}
	items, next, err := s.teller.Journal().List(ctx, req.Limit, req.After)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "journal: %v", err)
	}
	return encode(journalResponse{Items: items, Next: next})
}

// UnaryLogger logs every unary call with its code and latency.
func UnaryLogger(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	obs.Logger().Info("rpc_complete",
		zap.String("method", info.FullMethod),
		zap.Stringer("code", status.Code(err)),
		zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
	)
	return resp, err
}

var grpcMethodRoles = map[string][]string{
	bankv1.ApplyMethod:       {auth.RoleTeller, auth.RoleAdmin},
	bankv1.ListJournalMethod: {auth.RoleAuditor, auth.RoleTeller, auth.RoleAdmin},
}

// UnaryAuth checks the bearer token in the "authorization" metadata for the
// methods that need a role. A nil tokens disables the check.
func UnaryAuth(tokens *auth.Tokens) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		roles, guarded := grpcMethodRoles[info.FullMethod]
		if tokens == nil || !guarded {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		vals := md.Get("authorization")
		if len(vals) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		token, err := extractBearerToken(vals[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		claims, err := tokens.ParseAndValidate(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		ctx = auth.ContextWithUser(ctx, claims.Subject, claims.Roles)
		if !auth.HasAnyRole(ctx, roles...) {
			return nil, status.Error(codes.PermissionDenied, auth.ErrForbidden.Error())
		}
		return handler(ctx, req)
	}
}

func encode(v any) (*structpb.Struct, error) {
	out, err := bankv1.Encode(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func grpcError(err error) error {
	var limitErr *account.LimitError
	switch {
	case errors.As(err, &limitErr), errors.Is(err, account.ErrAmountOverflow):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, account.ErrUnknownAction),
		errors.Is(err, account.ErrNegativeAmount),
		errors.Is(err, errAmountRequired):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "action could not be recorded")
	}
}
