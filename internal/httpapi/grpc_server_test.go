package httpapi

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"bankfsm.org/api/bankv1"
	"bankfsm.org/internal/account"
	"bankfsm.org/internal/auth"
	"bankfsm.org/internal/journal"
	"bankfsm.org/internal/teller"
	"bankfsm.org/internal/teller/remote"
)

const bufSize = 1024 * 1024

func startBufGRPC(t *testing.T, srv *GRPCServer, tokens *auth.Tokens) *bufconn.Listener {
	t.Helper()

	listener := bufconn.Listen(bufSize)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogger, UnaryAuth(tokens)))
	srv.Register(server)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			t.Logf("grpc serve error: %v", err)
		}
	}()
	t.Cleanup(func() {
		server.GracefulStop()
		_ = listener.Close()
	})
	return listener
}

func dialBuf(t *testing.T, listener *bufconn.Listener) *remote.Client {
	t.Helper()
	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}
	client, err := remote.Dial(context.Background(), "bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func bufConn(t *testing.T, listener *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func healthClient(t *testing.T, listener *bufconn.Listener) healthpb.HealthClient {
	return healthpb.NewHealthClient(bufConn(t, listener))
}

func TestGRPCServer_Health(t *testing.T) {
	lis := startBufGRPC(t, NewGRPCServer(ReadyProbe{}, "1.2.3", nil), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := healthClient(t, lis).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

type failingReadiness struct{}

func (f failingReadiness) Check(context.Context) error { return errors.New("boom") }

func TestGRPCServer_HealthFailure(t *testing.T) {
	lis := startBufGRPC(t, NewGRPCServer(failingReadiness{}, "1.0.0", nil), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := healthClient(t, lis).Check(ctx, &healthpb.HealthCheckRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestGRPCServer_AccountRoundTrip(t *testing.T) {
	tl := teller.New(journal.NewInMemory(), teller.WithLimits(account.DefaultLimits()))
	lis := startBufGRPC(t, NewGRPCServer(ReadyProbe{}, "test", tl), nil)
	svc := remote.NewService(dialBuf(t, lis))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, controls, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, account.State{}, st)
	assert.True(t, controls.Open)

	r, err := svc.Dispatch(ctx, account.Open(500))
	require.NoError(t, err)
	assert.Equal(t, account.Applied, r.Outcome.Result)
	assert.Equal(t, account.State{Balance: 500, Active: true}, r.After)
	assert.Equal(t, account.KindOpen, r.Entry.Kind)

	r, err = svc.Dispatch(ctx, account.Withdraw(600))
	require.NoError(t, err)
	assert.Equal(t, account.Rejected, r.Outcome.Result)
	assert.Equal(t, account.ReasonInsufficientFunds, r.Outcome.Reason)

	_, err = svc.Dispatch(ctx, account.Deposit(50))
	assert.ErrorIs(t, err, account.ErrAmountOutOfRange)

	_, err = svc.Dispatch(ctx, account.Action{Kind: account.Kind(42), Amount: 1})
	assert.ErrorIs(t, err, account.ErrUnknownAction)

	items, next, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint64(2), next)
	assert.Equal(t, account.Rejected, items[1].Outcome.Result)

	st, _, err = svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, tl.State(), st)
}

func TestGRPCServer_RequiresRole(t *testing.T) {
	tokens, err := auth.NewTokens("grpc-secret")
	require.NoError(t, err)
	tl := teller.New(journal.NewInMemory())
	lis := startBufGRPC(t, NewGRPCServer(ReadyProbe{}, "test", tl), tokens)
	client := dialBuf(t, lis)
	svc := remote.NewService(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err = svc.State(ctx)
	require.NoError(t, err)

	_, err = svc.Dispatch(ctx, account.Open(500))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	auditor, _, err := tokens.Generate("carol", []string{auth.RoleAuditor}, time.Minute)
	require.NoError(t, err)
	client.WithToken(auditor)
	_, err = svc.Dispatch(ctx, account.Open(500))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	_, _, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)

	tellerTok, _, err := tokens.Generate("dave", []string{auth.RoleTeller}, time.Minute)
	require.NoError(t, err)
	client.WithToken(tellerTok)
	r, err := svc.Dispatch(ctx, account.Open(500))
	require.NoError(t, err)
	assert.True(t, r.Outcome.Applied())
}

func TestGRPCServer_AmountsStayExact(t *testing.T) {
	tl := teller.New(journal.NewInMemory())
	lis := startBufGRPC(t, NewGRPCServer(ReadyProbe{}, "test", tl), nil)
	raw := bankv1.NewAccountServiceClient(bufConn(t, lis))
	svc := remote.NewService(dialBuf(t, lis))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 2^53+1 arrives as 2^53 once it is a Struct number.
	in, err := bankv1.Encode(map[string]any{"type": "OPEN_ACCOUNT", "amount": int64(1<<53 + 1)})
	require.NoError(t, err)
	_, err = raw.Apply(ctx, in)
	assert.Equal(t, codes.OutOfRange, status.Code(err))
	assert.Equal(t, account.State{}, tl.State())

	_, err = svc.Dispatch(ctx, account.Open(1<<53+1))
	assert.ErrorIs(t, err, account.ErrAmountOverflow)

	r, err := svc.Dispatch(ctx, account.Open(account.MaxAmount-1))
	require.NoError(t, err)
	assert.Equal(t, account.MaxAmount-1, r.After.Balance)

	_, err = svc.Dispatch(ctx, account.Deposit(2))
	assert.ErrorIs(t, err, account.ErrAmountOverflow)

	r, err = svc.Dispatch(ctx, account.Deposit(1))
	require.NoError(t, err)
	assert.Equal(t, account.MaxAmount, r.After.Balance)

	st, _, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, tl.State(), st)
	assert.Equal(t, account.MaxAmount, st.Balance)
}

func TestGRPCServer_StepViolationKeepsItsCause(t *testing.T) {
	tl := teller.New(journal.NewInMemory(), teller.WithLimits(account.DefaultLimits()))
	lis := startBufGRPC(t, NewGRPCServer(ReadyProbe{}, "test", tl), nil)
	svc := remote.NewService(dialBuf(t, lis))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := svc.Dispatch(ctx, account.Open(550))
	assert.ErrorIs(t, err, account.ErrAmountStep)
	assert.NotErrorIs(t, err, account.ErrAmountOutOfRange)
}
