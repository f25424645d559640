package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-analytics-client/internal/pkg/logger"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("ai-analytics-client/pkg/sync/cache")

// Resource tags the kind of remote data behind a cache key. TTLs are
// configured per resource.
type Resource string

const (
	ResourceContext     Resource = "context"
	ResourceDatasources Resource = "datasources"
	ResourceSessions    Resource = "sessions"
	ResourceMessages    Resource = "messages"
)

// Loader performs the actual network fetch for a key.
type Loader func(ctx context.Context) (interface{}, error)

// Options tweak a single Fetch call. A TTLOverride of 0 forces any
// existing entry to be treated as stale (explicit refresh).
type Options struct {
	TTLOverride *time.Duration
}

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
}

// pendingRequest is the shared handle for one in-flight loader call.
// Waiters block on done; value/err are set exactly once before close.
type pendingRequest struct {
	done  chan struct{}
	value interface{}
	err   error
	epoch uint64
}

// Store is the keyed cache plus request coalescer. All map mutation is
// mutex-guarded; the lock is never held across a loader call.
type Store struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	pending map[string]*pendingRequest
	epoch   uint64

	ttls       map[Resource]time.Duration
	defaultTTL time.Duration
	clock      clockwork.Clock
	logger     logger.ILogger
}

func NewStore(clock clockwork.Clock, ttls map[Resource]time.Duration, defaultTTL time.Duration, log logger.ILogger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		entries:    make(map[string]cacheEntry),
		pending:    make(map[string]*pendingRequest),
		ttls:       ttls,
		defaultTTL: defaultTTL,
		clock:      clock,
		logger:     log,
	}
}

// Key builds the canonical cache key for a resource and its parameters.
func Key(res Resource, params ...string) string {
	parts := append([]string{string(res)}, params...)
	return strings.Join(parts, ":")
}

func (s *Store) ttlFor(res Resource, opts *Options) time.Duration {
	if opts != nil && opts.TTLOverride != nil {
		return *opts.TTLOverride
	}
	if ttl, ok := s.ttls[res]; ok {
		return ttl
	}
	return s.defaultTTL
}

// Fetch returns the cached value for the key when fresh, attaches to an
// in-flight request when one exists, and otherwise invokes the loader.
// At most one loader call is ever in flight per key. Failures propagate
// to every waiter and are not cached.
func (s *Store) Fetch(ctx context.Context, res Resource, params []string, loader Loader, opts *Options) (interface{}, error) {
	key := Key(res, params...)
	ttl := s.ttlFor(res, opts)

	s.mu.Lock()
	if e, ok := s.entries[key]; ok && ttl > 0 && s.clock.Now().Sub(e.fetchedAt) < ttl {
		s.mu.Unlock()
		return e.value, nil
	}
	if p, ok := s.pending[key]; ok {
		s.mu.Unlock()
		select {
		case <-p.done:
			return p.value, p.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p := &pendingRequest{done: make(chan struct{}), epoch: s.epoch}
	s.pending[key] = p
	s.mu.Unlock()

	loadCtx, span := tracer.Start(ctx, "cache.load")
	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.String("cache.resource", string(res)),
	)
	value, err := loader(loadCtx)
	span.End()

	s.mu.Lock()
	if cur, ok := s.pending[key]; ok && cur == p {
		delete(s.pending, key)
	}
	// A ClearAll between dispatch and settle bumps the epoch; the result
	// still reaches waiters but must not repopulate the wiped cache.
	if err == nil && p.epoch == s.epoch {
		s.entries[key] = cacheEntry{value: value, fetchedAt: s.clock.Now()}
	}
	s.mu.Unlock()

	p.value, p.err = value, err
	close(p.done)

	if err != nil {
		s.logger.Debug("Cache", "Loader failed", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		return nil, err
	}
	return value, nil
}

// Invalidate removes the cache entry for a key. An in-flight request for
// the same key is left alone; callers racing it still coalesce.
func (s *Store) Invalidate(res Resource, params ...string) {
	key := Key(res, params...)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// InvalidatePrefix removes every entry under a resource, e.g. all session
// lists after a session mutation.
func (s *Store) InvalidatePrefix(res Resource) {
	prefix := string(res) + ":"
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// ClearAll wipes every entry and abandons pending requests' eventual
// results. Used on sign-out.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.epoch++
	s.entries = make(map[string]cacheEntry)
	s.pending = make(map[string]*pendingRequest)
	s.mu.Unlock()
}

// Len reports the number of live entries, fresh or stale.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
