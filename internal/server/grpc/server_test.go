package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startBufconn runs s on an in-memory listener and returns a client for it.
func startBufconn(t *testing.T, s *GRPCServer) *AccountClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return NewAccountClient(conn)
}

func TestAccountService_EndToEnd(t *testing.T) {
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &fakeAccounts{
		loginResp: &services.Token{AccessToken: "t1", TokenType: "bearer"},
		renewResp: &services.Token{AccessToken: "t2", TokenType: "bearer"},
		authUser:  &models.User{ID: 7, Name: "alice", Email: "a@x.com", PasswordHash: "secret", IsActivated: true, LastActive: &last},
	}
	m := metrics.New()
	client := startBufconn(t, NewGRPCServer("", logging.Nop{}, a, m))
	ctx := context.Background()

	tok, err := client.Login(ctx, &LoginRequest{Username: "alice", Password: "pw1", ClientID: "cli"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.AccessToken != "t1" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if a.loginReq.Username != "alice" || a.loginReq.ClientID != "cli" {
		t.Fatalf("login request not forwarded: %+v", a.loginReq)
	}
	if testutil.ToFloat64(m.Logins.WithLabelValues(metrics.LoginSuccess)) != 1 {
		t.Fatal("login success not counted")
	}

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer t1")

	me, err := client.Me(authed)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.ID != 7 || me.Name != "alice" || me.LastActive == nil || !me.LastActive.Equal(last) {
		t.Fatalf("unexpected user: %+v", me)
	}

	renewed, err := client.RenewToken(authed)
	if err != nil {
		t.Fatalf("RenewToken: %v", err)
	}
	if renewed.AccessToken != "t2" || a.renewToken != "t1" {
		t.Fatalf("unexpected renew: %+v (token %q)", renewed, a.renewToken)
	}

	if _, err := client.Me(ctx); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated without token, got %v", err)
	}
}

func TestAccountService_LoginRejected(t *testing.T) {
	a := &fakeAccounts{loginErr: common.ErrorUnauthorized}
	client := startBufconn(t, NewGRPCServer("", logging.Nop{}, a, metrics.New()))

	_, err := client.Login(context.Background(), &LoginRequest{Username: "alice", Password: "bad"})
	st, _ := status.FromError(err)
	if st.Code() != codes.Unauthenticated || st.Message() != "Incorrect username or password" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, &fakeAccounts{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, &fakeAccounts{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}
