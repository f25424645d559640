package generation

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies one hydration generation for a root. Asynchronous
// steps capture the token at dispatch and re-check it before committing
// results; a mismatch means the result belongs to an abandoned run.
type Token uint64

// Tracker keeps a monotonically increasing generation counter per
// switchable root. It does not cancel network calls; it only makes stale
// completions detectable.
type Tracker struct {
	mu      sync.Mutex
	current map[uuid.UUID]uint64
}

func NewTracker() *Tracker {
	return &Tracker{current: make(map[uuid.UUID]uint64)}
}

// Begin starts a new generation for the root, invalidating all tokens
// handed out before it.
func (t *Tracker) Begin(rootId uuid.UUID) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current[rootId]++
	return Token(t.current[rootId])
}

// IsCurrent reports whether the token still names the live generation.
func (t *Tracker) IsCurrent(rootId uuid.UUID, token Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return uint64(token) == t.current[rootId]
}

// CancelCurrent invalidates the live generation without starting work
// under a new one (e.g. leaving the workspace view entirely).
func (t *Tracker) CancelCurrent(rootId uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current[rootId]++
}
