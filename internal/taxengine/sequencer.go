package taxengine

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Sequencer keys asynchronous computations by a monotonic per-item token so a
// slow result cannot overwrite the outcome of a newer keystroke.
type Sequencer struct {
	mu   sync.Mutex
	seen *gocache.Cache
}

// NewSequencer builds a sequencer whose per-key state expires after ttl of inactivity.
func NewSequencer(ttl, cleanup time.Duration) *Sequencer {
	return &Sequencer{seen: gocache.New(ttl, cleanup)}
}

// Observe records seq for key and reports whether it is still current. A token
// lower than the highest one already accepted is superseded; replaying the
// current token is accepted.
func (s *Sequencer) Observe(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.seen.Get(key); ok {
		if last, ok := raw.(uint64); ok && seq < last {
			return false
		}
	}
	s.seen.SetDefault(key, seq)
	return true
}

// Latest returns the highest accepted token for key.
func (s *Sequencer) Latest(key string) (uint64, bool) {
	raw, ok := s.seen.Get(key)
	if !ok {
		return 0, false
	}
	last, ok := raw.(uint64)
	return last, ok
}
