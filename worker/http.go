package worker

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer serves Handler until ctx is cancelled, then drains in-flight
// requests for at most ShutdownTimeout.
type HTTPServer struct {
	Addr            string
	Handler         http.Handler
	ShutdownTimeout time.Duration
	// Listener overrides Addr when set.
	Listener net.Listener
}

func (w *HTTPServer) Name() string { return "http" }

func (w *HTTPServer) Start(ctx context.Context) error {
	timeout := w.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	srv := &http.Server{
		Addr:              w.Addr,
		Handler:           w.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		var err error
		if w.Listener != nil {
			slog.Info("http: listening", "addr", w.Listener.Addr().String())
			err = srv.Serve(w.Listener)
		} else {
			slog.Info("http: listening", "addr", w.Addr)
			err = srv.ListenAndServe()
		}
		errc <- err
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	slog.Info("http: shutting down", "timeout", timeout)
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
