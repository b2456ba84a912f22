package server

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	dedupSessionLimit        = 1024
	dedupCacheSizePerSession = 1000
)

// eventDedupCache suppresses client retries. Unity clients replay their
// offline queue after reconnecting, so an event carrying a client-assigned
// event_id may arrive more than once. Suppression is best effort: the window
// is bounded by the per-session LRU and does not survive a restart.
//
// Session ids are client-supplied, so the outer map is itself an LRU; a
// long-running server tracks at most sessionLimit sessions at a time.
//
// Lookup and record are separate steps. An id must only be recorded once its
// row has committed, otherwise a failed insert would turn the client's retry
// into a false duplicate and lose the event.
type eventDedupCache struct {
	cacheSize int
	mu        sync.Mutex
	sessions  *lru.Cache[string, *lru.Cache[string, struct{}]]
}

func newEventDedupCache(sessionLimit, cacheSize int) (*eventDedupCache, error) {
	if sessionLimit <= 0 || cacheSize <= 0 {
		return nil, fmt.Errorf("cache sizes must be positive")
	}

	sessions, err := lru.New[string, *lru.Cache[string, struct{}]](sessionLimit)
	if err != nil {
		return nil, err
	}

	return &eventDedupCache{
		cacheSize: cacheSize,
		sessions:  sessions,
	}, nil
}

// contains reports whether sessionID:eventID was already ingested. Events
// without a client event_id are never deduplicated.
func (d *eventDedupCache) contains(sessionID, eventID string) bool {
	sessionID = strings.TrimSpace(sessionID)
	eventID = strings.TrimSpace(eventID)
	if sessionID == "" || eventID == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cache, ok := d.sessions.Get(sessionID)
	if !ok {
		return false
	}
	return cache.Contains(eventID)
}

// record marks sessionID:eventID as ingested. Call only after the event row
// has been committed.
func (d *eventDedupCache) record(sessionID, eventID string) {
	sessionID = strings.TrimSpace(sessionID)
	eventID = strings.TrimSpace(eventID)
	if sessionID == "" || eventID == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cache, ok := d.sessions.Get(sessionID)
	if !ok {
		var err error
		cache, err = lru.New[string, struct{}](d.cacheSize)
		if err != nil {
			return
		}
		d.sessions.Add(sessionID, cache)
	}
	cache.Add(eventID, struct{}{})
}
