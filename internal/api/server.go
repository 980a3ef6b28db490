// Package api hosts the local control-plane HTTP server. Each endpoint
// in the registry is served under /v1/power/<name>: GET reads the text
// form, PUT or POST writes a token.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/endpoint"
	"github.com/arclight-labs/pmcore/pkg/log"
)

const (
	apiVersion   = "v1"
	powerPrefix  = "/" + apiVersion + "/power/"
	maxTokenSize = 4096
)

// ServerOptions configures the HTTP server. Timeouts are conservative
// defaults for a local control-plane listener.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	Logger            log.Logger
}

// Server serves the endpoint registry over HTTP.
type Server struct {
	http     *http.Server
	registry *endpoint.Registry
	logger   log.Logger
	opts     ServerOptions
}

// NewServer builds a server around the registry. It does not listen
// until Start is called.
func NewServer(registry *endpoint.Registry, opts ServerOptions) *Server {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	s := &Server{
		registry: registry,
		logger:   opts.Logger,
		opts:     opts,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+apiVersion+"/healthz", s.handleHealthz)
	mux.HandleFunc("/"+apiVersion+"/power", s.handleList)
	mux.HandleFunc(powerPrefix, s.handleEndpoint)

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("control api listening", log.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control api serve failed", log.Err(err))
		}
	}()
}

// Stop gracefully shuts the server down, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeText(w, http.StatusMethodNotAllowed, "method not allowed\n")
		return
	}
	writeText(w, http.StatusOK, "ok\n")
}

// handleList returns one endpoint name per line, registration order.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeText(w, http.StatusMethodNotAllowed, "method not allowed\n")
		return
	}
	var b strings.Builder
	for _, name := range s.registry.Names() {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	writeText(w, http.StatusOK, b.String())
}

func (s *Server) handleEndpoint(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, powerPrefix)
	if name == "" || strings.Contains(name, "/") {
		writeText(w, http.StatusNotFound, "not found\n")
		return
	}
	ep, ok := s.registry.Lookup(name)
	if !ok {
		writeText(w, http.StatusNotFound, "not found\n")
		return
	}

	switch r.Method {
	case http.MethodGet:
		body, err := ep.Read(r.Context())
		if err != nil {
			s.writeError(w, name, err)
			return
		}
		writeText(w, http.StatusOK, body)

	case http.MethodPut, http.MethodPost:
		token, err := io.ReadAll(io.LimitReader(r.Body, maxTokenSize))
		if err != nil {
			writeText(w, http.StatusBadRequest, "read body: "+err.Error()+"\n")
			return
		}
		if err := ep.Write(r.Context(), token); err != nil {
			s.writeError(w, name, err)
			return
		}
		writeText(w, http.StatusNoContent, "")

	default:
		writeText(w, http.StatusMethodNotAllowed, "method not allowed\n")
	}
}

// writeError maps domain errors to HTTP statuses. Unknown errors are
// internal failures from an engine or downstream system.
func (s *Server) writeError(w http.ResponseWriter, name string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRejected):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInterrupted):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("endpoint write failed", log.String("endpoint", name), log.Err(err))
	}
	writeText(w, status, err.Error()+"\n")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if body != "" {
		_, _ = io.WriteString(w, body)
	}
}
