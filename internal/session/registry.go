package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"

	"mbtamap/internal/directory"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// Limits used when NewRegistry is given a non-positive size or TTL.
const (
	DefaultMaxSessions = 1000
	DefaultTTL         = 2 * time.Hour
)

// Registry holds live sessions. Least recently used sessions are evicted
// past the size limit, and sessions idle longer than the TTL expire.
type Registry struct {
	cache  gcache.Cache
	dir    *directory.Directory
	cfg    Config
	ttl    time.Duration
	logger *slog.Logger
}

// NewRegistry creates a registry of at most size sessions over dir.
func NewRegistry(dir *directory.Directory, cfg Config, size int, ttl time.Duration, logger *slog.Logger) *Registry {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{dir: dir, cfg: cfg, ttl: ttl, logger: logger}
	r.cache = gcache.New(size).
		LRU().
		Expiration(ttl).
		EvictedFunc(func(key, value interface{}) {
			if s, ok := value.(*Session); ok {
				s.Close()
				logger.Debug("session evicted", "session", key)
			}
		}).
		Build()
	return r
}

// Create starts a new session with a random id.
func (r *Registry) Create() *Session {
	s := New(uuid.NewString(), r.dir, r.cfg, r.logger)
	r.cache.Set(s.ID, s)
	r.logger.Info("session created", "session", s.ID)
	return s
}

// Get returns the session with id and refreshes its expiry.
func (r *Registry) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	v, err := r.cache.Get(id)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	r.cache.SetWithExpire(id, s, r.ttl)
	return s, nil
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) {
	r.cache.Remove(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.Len(true)
}
