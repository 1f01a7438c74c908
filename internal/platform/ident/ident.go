package ident

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces record ids of the form "{prefix}-{token}". The prefix
// identifies the entity type (fb, profil, wert, pv); the token must be unique
// within the deployment. Callers never supply ids on create.
type Generator interface {
	NewID(prefix string) string
}

// UUID is the production generator. Timestamp tokens collide under rapid
// successive creates; a UUID token keeps the "{prefix}-{token}" shape
// without that hazard.
type UUID struct{}

func (UUID) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Sequence is a deterministic per-prefix counter for tests.
type Sequence struct {
	mu   sync.Mutex
	next map[string]int
}

func NewSequence() *Sequence {
	return &Sequence{next: make(map[string]int)}
}

func (s *Sequence) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[prefix]++
	return fmt.Sprintf("%s-%d", prefix, s.next[prefix])
}
