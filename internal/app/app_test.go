package app

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestRunStartsAndStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	// Случайные порты, чтобы не конфликтовать с окружением.
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	// Даём серверам подняться, затем просим остановиться.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRunReturnsOnServerError(t *testing.T) {
	// Занимаем порт заранее, чтобы ListenAndServe упал сразу.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := DefaultConfig()
	cfg.HTTPAddr = ln.Addr().String()
	cfg.MetricsAddr = "127.0.0.1:0"

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(context.Background(), cfg)
	}()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("Run must return the server error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after server start failure")
	}
}
