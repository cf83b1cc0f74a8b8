package certificate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/util"
)

// Certificate is the server's authoritative record of an issued credential.
// The bearer token carries the same identity; validation always answers from
// this record, never from token claims alone.
type Certificate struct {
	CertificateID string    `json:"certificate_id"`
	RelayID       string    `json:"relay_id"`
	PublicKey     string    `json:"public_key"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Signature     string    `json:"signature"`
}

// ValidatedCertificate is the result of a successful token validation
type ValidatedCertificate struct {
	RelayID   string
	PublicKey string
	ExpiresAt time.Time
}

// IssuedCertificate is returned from IssueCertificate; Token is the bearer
// credential the client presents
type IssuedCertificate struct {
	Token     string
	RelayID   string
	ExpiresAt time.Time
}

// tokenClaims mirrors the private claims of the HS256 bearer token
type tokenClaims struct {
	CertificateID string `json:"certificate_id"`
	RelayID       string `json:"relay_id"`
	PublicKey     string `json:"public_key"`
}

// Service issues and validates certificate tokens. Safe for concurrent use.
type Service struct {
	store    *certStore
	secret   []byte
	lifetime time.Duration
	logger   *zap.Logger
}

// NewService creates a certificate service signing with secret and issuing
// certificates valid for lifetime
func NewService(secret string, lifetime time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:    newCertStore(),
		secret:   []byte(secret),
		lifetime: lifetime,
		logger:   logger,
	}
}

// IssueCertificate records a certificate binding relayID to publicKey and
// returns the HS256 bearer token for it
func (s *Service) IssueCertificate(relayID, publicKey string) (*IssuedCertificate, error) {
	now := time.Now().UTC()
	s.store.CleanupExpired(now)

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, apperror.Internal(err, "failed to generate certificate id")
	}
	certificateID := util.Base64Encode(idBytes)
	expiresAt := now.Add(s.lifetime)

	cert := &Certificate{
		CertificateID: certificateID,
		RelayID:       relayID,
		PublicKey:     publicKey,
		IssuedAt:      now,
		ExpiresAt:     expiresAt,
		Signature:     s.signRecord(certificateID, relayID, publicKey, expiresAt),
	}
	s.store.Insert(cert)

	token, err := s.mintToken(cert)
	if err != nil {
		s.store.Delete(certificateID)
		return nil, err
	}

	s.logger.Sugar().Infow("Issued certificate",
		"certificate_id", certificateID, "relay_id", relayID, "expires_at", expiresAt)
	return &IssuedCertificate{
		Token:     token,
		RelayID:   relayID,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateCertificate verifies a bearer token and returns the stored
// identity. The returned public key is the one recorded at issue time.
func (s *Service) ValidateCertificate(tokenString string) (*ValidatedCertificate, error) {
	now := time.Now().UTC()
	s.store.CleanupExpired(now)

	key, err := jwk.Import(s.secret)
	if err != nil {
		return nil, apperror.Internal(err, "failed to import signing secret")
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAuthentication, err, "invalid certificate token")
	}

	var claims tokenClaims
	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return nil, apperror.Internal(err, "failed to marshal token claims")
	}
	if err := json.Unmarshal(tokenBytes, &claims); err != nil {
		return nil, apperror.Internal(err, "failed to unmarshal token claims")
	}
	if claims.CertificateID == "" {
		return nil, apperror.Authentication("certificate_id claim missing")
	}

	cert, ok := s.store.Get(claims.CertificateID)
	if !ok {
		return nil, apperror.Authentication("certificate not found")
	}

	if now.After(cert.ExpiresAt) {
		s.store.Delete(cert.CertificateID)
		return nil, apperror.Authentication("certificate has expired")
	}

	expected := s.signRecord(cert.CertificateID, cert.RelayID, cert.PublicKey, cert.ExpiresAt)
	if !hmac.Equal([]byte(expected), []byte(cert.Signature)) {
		return nil, apperror.Authentication("invalid certificate signature")
	}

	return &ValidatedCertificate{
		RelayID:   cert.RelayID,
		PublicKey: cert.PublicKey,
		ExpiresAt: cert.ExpiresAt,
	}, nil
}

// ActiveCertificateCount returns the number of live certificate records
func (s *Service) ActiveCertificateCount() int {
	return s.store.Len()
}

func (s *Service) mintToken(cert *Certificate) (string, error) {
	token := jwt.New()
	claims := []struct {
		name  string
		value interface{}
	}{
		{"certificate_id", cert.CertificateID},
		{"relay_id", cert.RelayID},
		{"public_key", cert.PublicKey},
		{jwt.IssuedAtKey, cert.IssuedAt},
		{jwt.ExpirationKey, cert.ExpiresAt},
	}
	for _, c := range claims {
		if err := token.Set(c.name, c.value); err != nil {
			return "", apperror.Internal(err, fmt.Sprintf("failed to set %s claim", c.name))
		}
	}

	key, err := jwk.Import(s.secret)
	if err != nil {
		return "", apperror.Internal(err, "failed to import signing secret")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), key))
	if err != nil {
		return "", apperror.Internal(err, "failed to sign certificate token")
	}
	return string(signed), nil
}

// signRecord computes the record integrity tag over
// certificate_id:relay_id:public_key:expires_at_unix
func (s *Service) signRecord(certificateID, relayID, publicKey string, expiresAt time.Time) string {
	data := fmt.Sprintf("%s:%s:%s:%d", certificateID, relayID, publicKey, expiresAt.Unix())
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return util.Base64Encode(mac.Sum(nil))
}
