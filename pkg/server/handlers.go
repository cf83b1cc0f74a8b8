package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/pow"
	"github.com/relayworks/eventserver-go/pkg/types"
)

const serverVersion = "1.0.0"

// handleHealth reports overall health from the per-dependency checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storageOK := s.store.HealthCheck(r.Context()) == nil
	if !storageOK {
		s.logger.Sugar().Warnw("Storage health check failed")
	}

	resp := types.NewHealthResponse(types.ServiceHealthStatus{Storage: storageOK}, serverVersion)
	s.writeJSON(w, http.StatusOK, resp)
}

// handlePowChallenge issues a fresh proof-of-work challenge
func (s *Server) handlePowChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := s.pow.GenerateChallenge()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, challenge)
}

// handlePowVerify verifies a challenge solution and issues a certificate
// bound to the submitted relay identity and device public key
func (s *Server) handlePowVerify(w http.ResponseWriter, r *http.Request) {
	var req pow.CertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperror.Wrap(apperror.KindValidation, err, "failed to parse request"))
		return
	}

	switch {
	case req.Solution.ChallengeID == "":
		s.writeError(w, apperror.Validation("challenge_id is required"))
		return
	case req.Solution.Hash == "":
		s.writeError(w, apperror.Validation("hash is required"))
		return
	case req.PublicKey == "":
		s.writeError(w, apperror.Validation("public_key is required"))
		return
	case req.RelayID == "":
		s.writeError(w, apperror.Validation("relay_id is required"))
		return
	}

	if err := s.pow.VerifySolution(&req.Solution); err != nil {
		s.writeError(w, err)
		return
	}

	issued, err := s.certs.IssueCertificate(req.RelayID, req.PublicKey)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, pow.CertificateResponse{
		Token:     issued.Token,
		RelayID:   issued.RelayID,
		ExpiresAt: issued.ExpiresAt,
	})
}

// handleSubmitEvent stores a verified event package as a JSON object
func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	relayID, ep, err := s.eventFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.events.ProcessEvent(r.Context(), ep, relayID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleSubmitEventPackage stores a verified event as a ZIP archive
func (s *Server) handleSubmitEventPackage(w http.ResponseWriter, r *http.Request) {
	relayID, ep, err := s.eventFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.events.ProcessEventPackage(r.Context(), ep, relayID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// eventFromRequest returns the authenticated relay and the event package.
// Signed envelopes are verified and unwrapped by the middleware; a plain
// event package body is accepted as-is since the bearer certificate already
// authenticated the caller.
func (s *Server) eventFromRequest(r *http.Request) (string, *types.EventPackage, error) {
	relayID, ok := RelayIDFromContext(r.Context())
	if !ok {
		return "", nil, apperror.Authentication("request is not authenticated")
	}

	if ep, ok := EventPackageFromContext(r.Context()); ok {
		return relayID, ep, nil
	}

	var ep types.EventPackage
	if err := json.NewDecoder(r.Body).Decode(&ep); err != nil {
		return "", nil, apperror.Wrap(apperror.KindValidation, err, "failed to parse event package")
	}
	return relayID, &ep, nil
}

// handleUploadNotification acknowledges a client-side upload completion
func (s *Server) handleUploadNotification(w http.ResponseWriter, r *http.Request) {
	relayID, ok := RelayIDFromContext(r.Context())
	if !ok {
		s.writeError(w, apperror.Authentication("request is not authenticated"))
		return
	}

	var payload types.EventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, apperror.Wrap(apperror.KindValidation, err, "failed to parse upload notification"))
		return
	}
	if payload.Filename == "" {
		s.writeError(w, apperror.Validation("filename is required"))
		return
	}

	s.logger.Sugar().Infow("Upload notification received",
		"relay_id", relayID, "filename", payload.Filename, "content_type", payload.ContentType)

	s.writeJSON(w, http.StatusOK, types.UploadAck{
		Status:      "received",
		Filename:    payload.Filename,
		ContentType: payload.ContentType,
		ReceivedAt:  time.Now().UTC(),
	})
}

// handleVerifyEventHash reports whether an event hash is known to storage
func (s *Server) handleVerifyEventHash(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if len(hash) != 64 {
		s.writeError(w, apperror.Validation("hash must be 64 hex characters"))
		return
	}

	exists, err := s.events.VerifyEventHash(r.Context(), hash)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, types.HashVerificationResponse{
		Hash:      hash,
		Exists:    exists,
		Timestamp: time.Now().UTC(),
	})
}

// handleListRelays reports the relays visible to the caller. The server keeps
// no relay registry, so the list contains the authenticated relay itself.
func (s *Server) handleListRelays(w http.ResponseWriter, r *http.Request) {
	relayID, ok := RelayIDFromContext(r.Context())
	if !ok {
		s.writeError(w, apperror.Authentication("request is not authenticated"))
		return
	}

	now := time.Now().UTC()
	s.writeJSON(w, http.StatusOK, types.ApprovedRelaysList{
		Relays: []types.ApprovedRelay{
			{
				ID:       relayID,
				Status:   types.RelayStatusActive,
				LastSeen: &now,
			},
		},
		UpdatedAt: now,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Sugar().Errorw("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	status := kind.HTTPStatus()

	if status >= http.StatusInternalServerError {
		s.logger.Sugar().Errorw("Request failed", "error", err)
	} else {
		s.logger.Sugar().Warnw("Request rejected", "error", err)
	}

	s.writeJSON(w, status, types.ErrorResponse{
		Error:     apperror.ClientMessage(err),
		Code:      kind.String(),
		Timestamp: time.Now().UTC(),
	})
}
