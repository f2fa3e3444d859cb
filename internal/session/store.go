// Package session keeps wizard sessions in memory, keyed by UUID, and
// evicts them after a period of inactivity.
package session

import (
	"time"

	"github.com/fpang/retouch-studio/internal/wizard"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// minCleanupInterval bounds how often expired sessions are swept.
const minCleanupInterval = time.Minute

// Factory builds a new wizard session for a locale.
type Factory func(tag language.Tag) *wizard.Session

// Store is a TTL cache of sessions. Evicted or deleted sessions are closed,
// releasing their preview handles.
type Store struct {
	cache      *cache.Cache
	ttl        time.Duration
	newSession Factory
}

// NewStore creates a store whose sessions expire after ttl without access.
// A ttl of zero or less keeps sessions until deleted.
func NewStore(ttl time.Duration, newSession Factory) *Store {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = max(ttl/2, minCleanupInterval)
	}

	c := cache.New(expiration, cleanup)
	c.OnEvicted(func(id string, v interface{}) {
		if sess, ok := v.(*wizard.Session); ok {
			sess.Close()
			log.Info().Str("session_id", id).Msg("Session evicted")
		}
	})
	return &Store{cache: c, ttl: ttl, newSession: newSession}
}

// Create starts a new session and returns its ID.
func (s *Store) Create(tag language.Tag) (string, *wizard.Session) {
	id := uuid.NewString()
	sess := s.newSession(tag)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	log.Info().Str("session_id", id).Str("locale", tag.String()).Int("live_sessions", s.cache.ItemCount()).Msg("Session created")
	return id, sess
}

// Get returns the session for id and extends its lifetime.
func (s *Store) Get(id string) (*wizard.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*wizard.Session)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Delete removes and closes the session for id. It reports whether the
// session existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.cache.Get(id); !ok {
		return false
	}
	s.cache.Delete(id)
	return true
}

// Len returns the number of stored sessions, including expired ones not
// yet swept.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Close deletes and closes every session.
func (s *Store) Close() {
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
