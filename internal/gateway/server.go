// Package gateway is the HTTP surface of the receptionist: telephony
// webhooks, the media stream socket, and the WhatsApp text endpoints.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/respond"
	"github.com/donnabot/donna/internal/session"
	"github.com/donnabot/donna/internal/store"
	"github.com/donnabot/donna/internal/version"
	"github.com/donnabot/donna/internal/voice"
	"github.com/donnabot/donna/internal/whatsapp"
)

// Server is the Donna gateway HTTP + WebSocket server.
type Server struct {
	cfg     config.Config
	log     *logging.Logger
	version string

	// Collaborators; any may be nil, in which case the routes that need
	// them answer with a service error.
	bridge    *voice.Bridge
	manager   *session.Manager
	responder *respond.Responder
	sender    *whatsapp.Sender
	archive   *store.TranscriptStore

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithBridge sets the voice call bridge for the media stream route.
func WithBridge(b *voice.Bridge) ServerOption {
	return func(s *Server) { s.bridge = b }
}

// WithSessionManager sets the text channel's session manager.
func WithSessionManager(m *session.Manager) ServerOption {
	return func(s *Server) { s.manager = m }
}

// WithResponder sets the text channel's responder.
func WithResponder(r *respond.Responder) ServerOption {
	return func(s *Server) { s.responder = r }
}

// WithSender sets the outbound WhatsApp sender.
func WithSender(w *whatsapp.Sender) ServerOption {
	return func(s *Server) { s.sender = w }
}

// WithArchive sets the transcript archive for ended text sessions.
func WithArchive(a *store.TranscriptStore) ServerOption {
	return func(s *Server) { s.archive = a }
}

// New creates a new gateway server.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.Sub("gateway"),
		version: version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The media stream peer is the telephony provider, not a
			// browser; Origin checks don't apply.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.manager != nil && s.archive != nil {
		s.manager.OnEnd(s.archiveTextSession)
	}
	return s
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)

	handler := withMiddleware(mux, s.log)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// Write timeout stays unset: the media stream socket outlives any
		// sane bound, and TwiML replies are small.
		IdleTimeout: 120 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Gateway.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Gateway.TLS.CertPath, s.cfg.Gateway.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, tlsCfg)
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Gateway.Bind != "loopback" {
		s.log.Warn().Msg("TLS is not enabled — webhook traffic will be cleartext")
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Msg("gateway server ready")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		if s.manager != nil {
			s.manager.Cleanup()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// publicHost is the externally reachable host used in TwiML stream URLs.
// Falls back to the request's Host header when not configured.
func (s *Server) publicHost(r *http.Request) string {
	if s.cfg.Gateway.PublicHost != "" {
		return s.cfg.Gateway.PublicHost
	}
	return r.Host
}
