package pow

import (
	"sync"
	"time"
)

// challengeStore is a thread-safe map of outstanding challenges keyed by
// challenge ID. A challenge is present iff it has not been consumed and has
// not been swept as expired.
type challengeStore struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
}

func newChallengeStore() *challengeStore {
	return &challengeStore{
		challenges: make(map[string]*Challenge),
	}
}

// Insert stores a challenge, sweeping expired entries first
func (s *challengeStore) Insert(ch *Challenge) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	cp := *ch
	s.challenges[ch.ChallengeID] = &cp
}

// Get returns a copy of the challenge if present
func (s *challengeStore) Get(id string) (*Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[id]
	if !ok {
		return nil, false
	}
	cp := *ch
	return &cp, true
}

// Take atomically removes and returns the challenge. Exactly one concurrent
// caller succeeds for a given ID.
func (s *challengeStore) Take(id string) (*Challenge, bool) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	ch, ok := s.challenges[id]
	if !ok {
		return nil, false
	}
	delete(s.challenges, id)
	cp := *ch
	return &cp, true
}

// Delete removes the challenge if present. Idempotent.
func (s *challengeStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, id)
}

// CleanupExpired removes every challenge whose expiry is before now
func (s *challengeStore) CleanupExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
}

// Len returns the number of live challenges
func (s *challengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

func (s *challengeStore) sweepLocked(now time.Time) {
	for id, ch := range s.challenges {
		if now.After(ch.ExpiresAt) {
			delete(s.challenges, id)
		}
	}
}
