// Package registry maps opaque selection tokens to pending download
// candidates. Tokens ride inside Telegram callback-query payloads, which are
// capped at 64 bytes, so the candidate itself stays server-side.
package registry

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"

	"github.com/telegrab/telegrab/internals/extractor"
)

const tokenLen = 10

// Registry is safe for concurrent use. Tokens are removed only by
// consumption; there is no timer-based expiry.
type Registry struct {
	mu         sync.Mutex
	selections map[string]extractor.Candidate
}

func New() *Registry {
	return &Registry{selections: make(map[string]extractor.Candidate)}
}

// Register stores the candidate under a fresh token and returns the token.
func (r *Registry) Register(c extractor.Candidate) string {
	token := newToken()
	r.mu.Lock()
	r.selections[token] = c
	r.mu.Unlock()
	return token
}

// Consume atomically looks up and removes a token. A token can be consumed
// exactly once; later calls report false.
func (r *Registry) Consume(token string) (extractor.Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.selections[token]
	if ok {
		delete(r.selections, token)
	}
	return c, ok
}

func newToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:tokenLen]
}
