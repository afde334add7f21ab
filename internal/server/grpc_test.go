package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
)

func TestHealthReportsPerServiceStatus(t *testing.T) {
	s := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetServing("", true)
	s.SetServing(ServicePipeline, true)
	s.SetServing(ServiceSink, false)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	client := healthpb.NewHealthClient(conn)

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	tests := map[string]healthpb.HealthCheckResponse_ServingStatus{
		"":              healthpb.HealthCheckResponse_SERVING,
		ServicePipeline: healthpb.HealthCheckResponse_SERVING,
		ServiceSink:     healthpb.HealthCheckResponse_NOT_SERVING,
	}
	for svc, want := range tests {
		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("check %q: %v", svc, err)
		}
		if resp.GetStatus() != want {
			t.Fatalf("status %q = %v, want %v", svc, resp.GetStatus(), want)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestOpenHistoryEmptyDSNDisabled(t *testing.T) {
	runs, closeFn, err := OpenHistory(context.Background(), common.DatabaseConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil || runs != nil {
		t.Fatalf("runs=%v err=%v", runs, err)
	}
	closeFn()
}

func TestOpenHistorySQLite(t *testing.T) {
	ctx := context.Background()
	runs, closeFn, err := OpenHistory(ctx, common.DatabaseConfig{DSN: "sqlite::memory:"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()
	if _, err := runs.Start(ctx, "a.pdf", "h", "m"); err != nil {
		t.Fatalf("start: %v", err)
	}
}
