package pow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/util"
)

// Challenge is an outstanding proof-of-work challenge
type Challenge struct {
	ChallengeID   string    `json:"challenge_id"`
	ChallengeData string    `json:"challenge_data"`
	Difficulty    int       `json:"difficulty"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Solution is a client-submitted answer to a challenge
type Solution struct {
	ChallengeID string `json:"challenge_id"`
	Nonce       uint64 `json:"nonce"`
	Hash        string `json:"hash"`
}

// CertificateRequest is the PoW verify request body: a solution plus the
// relay identity the certificate should bind
type CertificateRequest struct {
	Solution  Solution `json:"solution"`
	PublicKey string   `json:"public_key"`
	RelayID   string   `json:"relay_id"`
}

// CertificateResponse is the PoW verify response: the issued bearer token
// and its binding
type CertificateResponse struct {
	Token     string    `json:"token"`
	RelayID   string    `json:"relay_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues challenges and verifies solutions. Safe for concurrent use.
type Service struct {
	store             *challengeStore
	defaultDifficulty int
	challengeLifetime time.Duration
	logger            *zap.Logger
}

// NewService creates a PoW service with the given difficulty (leading zero
// hex nibbles) and challenge lifetime
func NewService(difficulty int, lifetime time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:             newChallengeStore(),
		defaultDifficulty: difficulty,
		challengeLifetime: lifetime,
		logger:            logger,
	}
}

// GenerateChallenge creates, stores and returns a fresh challenge
func (s *Service) GenerateChallenge() (*Challenge, error) {
	id, err := randomBase64(16)
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate challenge id")
	}
	data, err := randomBase64(32)
	if err != nil {
		return nil, apperror.Internal(err, "failed to generate challenge data")
	}

	now := time.Now().UTC()
	ch := &Challenge{
		ChallengeID:   id,
		ChallengeData: data,
		Difficulty:    s.defaultDifficulty,
		ExpiresAt:     now.Add(s.challengeLifetime),
		CreatedAt:     now,
	}
	s.store.Insert(ch)

	s.logger.Sugar().Debugw("Issued PoW challenge", "challenge_id", ch.ChallengeID, "difficulty", ch.Difficulty)
	return ch, nil
}

// VerifySolution checks a solution against its challenge. A successful
// verification consumes the challenge; only one concurrent solver can win.
func (s *Service) VerifySolution(sol *Solution) error {
	ch, ok := s.store.Get(sol.ChallengeID)
	if !ok {
		return apperror.Authentication("challenge not found")
	}

	if time.Now().UTC().After(ch.ExpiresAt) {
		s.store.Delete(sol.ChallengeID)
		return apperror.Authentication("challenge has expired")
	}

	raw := ComputeHash(ch.ChallengeData, sol.Nonce)
	if util.Base64Encode(raw) != sol.Hash {
		return apperror.Validation("invalid hash in solution")
	}

	if LeadingZeroNibbles(raw) < ch.Difficulty {
		return apperror.Newf(apperror.KindAuthentication,
			"hash does not meet difficulty requirement of %d leading zeros", ch.Difficulty)
	}

	// Consume the challenge. Losing a race here means another solver
	// already spent it.
	if _, ok := s.store.Take(sol.ChallengeID); !ok {
		return apperror.Authentication("challenge not found")
	}

	return nil
}

// ActiveChallengeCount returns the number of live challenges
func (s *Service) ActiveChallengeCount() int {
	return s.store.Len()
}

// ComputeHash hashes the challenge data string (the base64 text exactly as
// issued, not its decoded bytes) followed by the nonce as 8 little-endian
// bytes
func ComputeHash(challengeData string, nonce uint64) []byte {
	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)

	h := sha256.New()
	h.Write([]byte(challengeData))
	h.Write(nonceBytes[:])
	return h.Sum(nil)
}

// LeadingZeroNibbles counts leading zero hex nibbles of a raw hash
func LeadingZeroNibbles(hash []byte) int {
	count := 0
	for _, b := range hash {
		if b == 0 {
			count += 2
			continue
		}
		if b < 16 {
			count++
		}
		break
	}
	return count
}

func randomBase64(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return util.Base64Encode(buf), nil
}
