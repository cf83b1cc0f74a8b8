package certificate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/apperror"
)

const testSecret = "test-signing-secret"

func TestIssueAndValidateCertificate(t *testing.T) {
	svc := NewService(testSecret, 24*time.Hour, zap.NewNop())

	issued, err := svc.IssueCertificate("relay-1", "device-public-key")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	assert.Equal(t, "relay-1", issued.RelayID)
	assert.Equal(t, 1, svc.ActiveCertificateCount())

	validated, err := svc.ValidateCertificate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "relay-1", validated.RelayID)
	assert.Equal(t, "device-public-key", validated.PublicKey)
	assert.True(t, validated.ExpiresAt.After(time.Now()))
}

func TestValidateTamperedToken(t *testing.T) {
	svc := NewService(testSecret, 24*time.Hour, zap.NewNop())

	issued, err := svc.IssueCertificate("relay-1", "device-public-key")
	require.NoError(t, err)

	// flip a character in the payload segment
	parts := strings.Split(issued.Token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = svc.ValidateCertificate(tampered)
	require.Error(t, err)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}

func TestValidateTokenSignedWithDifferentSecret(t *testing.T) {
	issuer := NewService("other-secret", 24*time.Hour, zap.NewNop())
	validator := NewService(testSecret, 24*time.Hour, zap.NewNop())

	issued, err := issuer.IssueCertificate("relay-1", "device-public-key")
	require.NoError(t, err)

	_, err = validator.ValidateCertificate(issued.Token)
	require.Error(t, err)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}

func TestValidateTokenWithoutStoreRecord(t *testing.T) {
	// same secret, different store: the token parses but the record is absent
	issuer := NewService(testSecret, 24*time.Hour, zap.NewNop())
	validator := NewService(testSecret, 24*time.Hour, zap.NewNop())

	issued, err := issuer.IssueCertificate("relay-1", "device-public-key")
	require.NoError(t, err)

	_, err = validator.ValidateCertificate(issued.Token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateExpiredCertificate(t *testing.T) {
	svc := NewService(testSecret, -1*time.Hour, zap.NewNop())

	issued, err := svc.IssueCertificate("relay-1", "device-public-key")
	require.NoError(t, err)

	_, err = svc.ValidateCertificate(issued.Token)
	require.Error(t, err)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))

	// the expired record must be gone
	assert.Equal(t, 0, svc.ActiveCertificateCount())
}

func TestValidateGarbageToken(t *testing.T) {
	svc := NewService(testSecret, 24*time.Hour, zap.NewNop())

	_, err := svc.ValidateCertificate("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}
