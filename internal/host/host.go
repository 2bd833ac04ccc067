// Package host answers status queries over HTTP.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/oukeidos/iconic/internal/catalog"
	"github.com/oukeidos/iconic/internal/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// IconSource picks the icon for a status query.
type IconSource interface {
	StatusIcon(ctx context.Context) (*catalog.Icon, error)
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Favicon string `json:"favicon,omitempty"`
}

func NewHandler(src IconSource) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		icon, ok := pick(w, r, src)
		if !ok {
			return
		}
		var resp StatusResponse
		if icon != nil {
			resp.Favicon = icon.DataURI()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Debug("Failed to write status response", "error", err)
		}
	})
	mux.HandleFunc("GET /icon.png", func(w http.ResponseWriter, r *http.Request) {
		icon, ok := pick(w, r, src)
		if !ok {
			return
		}
		if icon == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(icon.PNG)))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(icon.PNG)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func pick(w http.ResponseWriter, r *http.Request, src IconSource) (*catalog.Icon, bool) {
	icon, err := src.StatusIcon(r.Context())
	if err != nil {
		logger.Warn("Status query failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return icon, true
}

type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, src IconSource) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(src),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger.Info("Serving status queries", "addr", ln.Addr().String())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
