/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package httpserver runs the two concrete listeners this gateway
// needs — the S3 listener and the admin listener (metrics/healthz) —
// together under a golang.org/x/sync/errgroup, with an atomic run-state
// flag per server so a signal-triggered shutdown and a concurrent
// Listen call never race on a plain bool.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sabouaram/s3fsgw/logger"
)

const shutdownTimeout = 10 * time.Second

// Server wraps one *http.Server with an atomic running flag, so Shutdown
// from a signal handler and a concurrent Listen never race on a plain
// bool.
type Server struct {
	name    string
	addr    string
	handler http.Handler
	log     *logger.Logger

	running atomic.Bool
	srv     *http.Server
}

// New builds a Server bound to addr, serving handler, identified by name
// in log lines (e.g. "s3", "admin").
func New(name, addr string, handler http.Handler, log *logger.Logger) *Server {
	return &Server{name: name, addr: addr, handler: handler, log: log}
}

func (s *Server) IsRunning() bool { return s.running.Load() }

// Listen blocks serving HTTP on s.addr until ctx is cancelled, then
// shuts down gracefully within shutdownTimeout. Listen, wait, and
// shutdown are collapsed into one blocking call since
// golang.org/x/sync/errgroup already supplies the multi-listener
// cancellation fan-out.
func (s *Server) Listen(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.running.Store(true)
		s.log.With(map[string]any{"server": s.name, "addr": s.addr}).Info("listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		s.running.Store(false)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) shutdown() error {
	defer s.running.Store(false)

	s.log.With(map[string]any{"server": s.name}).Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
