package wizard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handle references preview bytes held by a session.
type Handle string

var (
	// ErrHandleLimit is returned when the table already holds its maximum.
	ErrHandleLimit = errors.New("too many live preview handles")
	// ErrUnknownHandle is returned for handles that were never issued or
	// have already been released.
	ErrUnknownHandle = errors.New("unknown or released preview handle")
)

type handleEntry struct {
	data     []byte
	mimeType string
}

// HandleTable holds preview buffers for one session. Every handle must be
// released exactly once.
type HandleTable struct {
	mu      sync.Mutex
	entries map[Handle]handleEntry
	max     int
}

// NewHandleTable creates a table allowing at most max live handles. A max of
// zero or less means no limit.
func NewHandleTable(max int) *HandleTable {
	return &HandleTable{entries: make(map[Handle]handleEntry), max: max}
}

// Acquire stores data and returns its new handle.
func (t *HandleTable) Acquire(data []byte, mimeType string) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.max > 0 && len(t.entries) >= t.max {
		return "", fmt.Errorf("%w (limit %d)", ErrHandleLimit, t.max)
	}
	h := Handle(uuid.NewString())
	t.entries[h] = handleEntry{data: data, mimeType: mimeType}
	return h, nil
}

// Lookup returns the bytes and MIME type behind h.
func (t *HandleTable) Lookup(h Handle) ([]byte, string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	return e.data, e.mimeType, ok
}

// Release frees h. Releasing an unknown or already released handle returns
// ErrUnknownHandle and changes nothing.
func (t *HandleTable) Release(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[h]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	delete(t.entries, h)
	return nil
}

// Live returns the number of unreleased handles.
func (t *HandleTable) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// ReleaseAll frees every live handle and returns how many there were.
func (t *HandleTable) ReleaseAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.entries)
	if n > 0 {
		log.Debug().Int("count", n).Msg("Releasing remaining preview handles")
	}
	clear(t.entries)
	return n
}
