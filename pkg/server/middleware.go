package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/eventjws"
)

// publicPaths are served without authentication. A path matches when it
// equals an entry or sits under it.
var publicPaths = []string{
	"/health",
	"/docs",
	"/openapi-json",
	"/openapi-yaml",
	"/api/v1/pow/challenge",
	"/api/v1/pow/verify",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// authMiddleware enforces certificate authentication on every non-public
// request. It validates the bearer token, buffers the body, and when the body
// is a signed envelope it verifies the JWS against the device key recorded at
// certificate issue time. The authenticated relay identity travels to the
// handler via the request context and RelayIDHeader.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a client-supplied value must never reach a handler
		r.Header.Del(RelayIDHeader)

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, apperror.Authentication("missing bearer token"))
			return
		}

		cert, err := s.certs.ValidateCertificate(token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
		if err != nil {
			s.writeError(w, apperror.Wrap(apperror.KindValidation, err, "failed to read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		ctx := withRelayID(r.Context(), cert.RelayID)

		if env, ok := signedEnvelope(body); ok {
			ep, err := eventjws.VerifyEventJWS(env, cert.PublicKey)
			if err != nil {
				s.writeError(w, err)
				return
			}
			ctx = withEventPackage(ctx, ep)
		}

		r.Header.Set(RelayIDHeader, cert.RelayID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// signedEnvelope reports whether body is a signed event envelope and returns
// its JWS. Any other body shape passes through to the handler untouched.
func signedEnvelope(body []byte) (string, bool) {
	var env struct {
		JWTEventData string `json:"jwtEventData"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.JWTEventData == "" {
		return "", false
	}
	return env.JWTEventData, true
}
