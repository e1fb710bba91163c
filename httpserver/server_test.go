package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sabouaram/s3fsgw/httpserver"
	"github.com/sabouaram/s3fsgw/logger"
)

func TestListenServesAndShutsDownOnCancel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s := httpserver.New("test", "127.0.0.1:0", mux, logger.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Listen(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server never reported running")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Listen returned error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after context cancellation")
	}
}
