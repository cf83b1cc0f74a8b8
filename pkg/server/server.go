package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/certificate"
	"github.com/relayworks/eventserver-go/pkg/config"
	"github.com/relayworks/eventserver-go/pkg/events"
	"github.com/relayworks/eventserver-go/pkg/pow"
	"github.com/relayworks/eventserver-go/pkg/storage"
)

// Server handles HTTP requests for the event ingestion API.
//
// Request flow for protected endpoints:
//   - Client solves a PoW challenge (POST /api/v1/pow/challenge, then
//     /api/v1/pow/verify) and receives a certificate bearer token bound to
//     its relay identity and ES256 device public key.
//   - Every protected request carries the token; the middleware validates it
//     against the stored certificate record.
//   - When the body is a signed envelope {jwtEventData}, the middleware
//     verifies the JWS with the device key from the certificate and hands
//     the unwrapped event package to the handler via the request context.
type Server struct {
	pow          *pow.Service
	certs        *certificate.Service
	events       *events.Service
	store        storage.ObjectStore
	maxBodyBytes int64
	logger       *zap.Logger
	httpServer   *http.Server
}

// NewServer creates a new server instance
func NewServer(
	cfg *config.AppConfig,
	powService *pow.Service,
	certService *certificate.Service,
	eventService *events.Service,
	store storage.ObjectStore,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pow:          powService,
		certs:        certService,
		events:       eventService,
		store:        store,
		maxBodyBytes: cfg.Server.MaxBodyBytes,
		logger:       logger,
	}

	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /docs", s.handleDocs)
	mux.HandleFunc("GET /openapi-json", s.handleOpenAPIJSON)
	mux.HandleFunc("GET /openapi-yaml", s.handleOpenAPIYAML)
	mux.HandleFunc("POST /api/v1/pow/challenge", s.handlePowChallenge)
	mux.HandleFunc("POST /api/v1/pow/verify", s.handlePowVerify)

	// Event endpoints (certificate required)
	mux.HandleFunc("POST /api/v1/events", s.handleSubmitEvent)
	mux.HandleFunc("POST /api/v1/events/package", s.handleSubmitEventPackage)
	mux.HandleFunc("POST /api/v1/events/upload", s.handleUploadNotification)
	mux.HandleFunc("GET /api/v1/events/{hash}/verify", s.handleVerifyEventHash)

	// Relay endpoints (certificate required)
	mux.HandleFunc("GET /api/v1/relays", s.handleListRelays)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: s.authMiddleware(mux),
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
