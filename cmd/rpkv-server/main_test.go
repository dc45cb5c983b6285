package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/heysubinoy/rpkv/internal/api"
	"github.com/heysubinoy/rpkv/pkg/config"
)

func TestRun_ServesHTTPAndGRPC(t *testing.T) {
	cfg := config.Default()
	cfg.Path = filepath.Join(t.TempDir(), "rpkv.db")
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type addrs struct{ http, grpc net.Addr }
	readyCh := make(chan addrs, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, func(h, g net.Addr) { readyCh <- addrs{h, g} })
	}()

	var bound addrs
	select {
	case bound = <-readyCh:
	case err := <-done:
		t.Fatalf("run() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not start")
	}

	resp, err := http.Post("http://"+bound.http.String()+"/store?key=toto&value=rue+des+pets", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /store: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /store = %d, want 200", resp.StatusCode)
	}

	conn, err := grpc.NewClient("passthrough:///"+bound.grpc.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	defer callCancel()
	value, found, err := api.NewClient(conn).Get(callCtx, "toto")
	if err != nil || !found || value != "rue des pets" {
		t.Errorf("gRPC Get() = %q, %v, %v, want %q", value, found, err, "rue des pets")
	}

	resp, err = http.Get("http://" + bound.http.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		t.Errorf("GET /metrics = %d %q", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v, want nil after shutdown", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer lis.Close()

	cfg := config.Default()
	cfg.Path = filepath.Join(t.TempDir(), "rpkv.db")
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.HTTPAddr = lis.Addr().String()

	if err := run(context.Background(), cfg, nil); err == nil {
		t.Error("run() should fail when the HTTP address is taken")
	}
}

func TestApp_BadConfig(t *testing.T) {
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if err := app.Run([]string{"rpkv-server", "--config", missing}); err == nil {
		t.Error("Run() should fail for a missing config file")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("config file should not be created")
	}
}
