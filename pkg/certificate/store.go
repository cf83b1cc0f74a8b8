package certificate

import (
	"sync"
	"time"
)

// certStore is a thread-safe map of issued certificates keyed by
// certificate ID
type certStore struct {
	mu    sync.Mutex
	certs map[string]*Certificate
}

func newCertStore() *certStore {
	return &certStore{
		certs: make(map[string]*Certificate),
	}
}

// Insert stores a certificate record
func (s *certStore) Insert(c *Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.certs[c.CertificateID] = &cp
}

// Get returns a copy of the certificate if present
func (s *certStore) Get(id string) (*Certificate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certs[id]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// Delete removes the certificate if present. Idempotent.
func (s *certStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.certs, id)
}

// CleanupExpired removes every certificate whose expiry is before now
func (s *certStore) CleanupExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.certs {
		if now.After(c.ExpiresAt) {
			delete(s.certs, id)
		}
	}
}

// Len returns the number of live certificates
func (s *certStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.certs)
}
