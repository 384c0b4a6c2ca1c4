// Package resource holds displayable binary payloads (previews, conversion results)
// behind opaque ids with an explicit create/revoke lifecycle.
package resource

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/emojiprofile/shared/middleware/metrics"
)

const uriPrefix = "/resources/"

var ErrNotFound = errors.New("resource not found")

type ID string

// Handle references a live resource. The zero Handle means "absent".
type Handle struct {
	ID       ID
	Owner    string
	MimeType string
	Size     int64
}

func (h Handle) IsZero() bool {
	return h.ID == ""
}

// URI is where the owner's browser can fetch the resource.
func (h Handle) URI() string {
	if h.IsZero() {
		return ""
	}
	return uriPrefix + string(h.ID)
}

type Resource struct {
	Handle
	Data      []byte
	CreatedAt time.Time
}

type Store struct {
	mu    sync.RWMutex
	items map[ID]*Resource
}

func NewStore() *Store {
	return &Store{items: make(map[ID]*Resource)}
}

// Create stores data and returns its handle. The store keeps the slice; callers must not mutate it.
func (s *Store) Create(owner, mimeType string, data []byte) Handle {
	h := Handle{
		ID:       ID(uuid.NewString()),
		Owner:    owner,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}

	s.mu.Lock()
	s.items[h.ID] = &Resource{Handle: h, Data: data, CreatedAt: time.Now()}
	s.mu.Unlock()

	metrics.ResourcesLive.Inc()
	return h
}

// Open returns the resource if it is live and belongs to owner.
func (s *Store) Open(owner string, id ID) (*Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.items[id]
	if !ok || res.Owner != owner {
		return nil, ErrNotFound
	}
	return res, nil
}

// Revoke releases the resource. Revoking an absent or already revoked handle is a no-op.
func (s *Store) Revoke(h Handle) bool {
	if h.IsZero() {
		return false
	}

	s.mu.Lock()
	res, ok := s.items[h.ID]
	if ok && res.Owner == h.Owner {
		delete(s.items, h.ID)
	}
	s.mu.Unlock()

	if ok && res.Owner == h.Owner {
		metrics.ResourcesLive.Dec()
		return true
	}
	return false
}

// RevokeOwner releases everything owner still holds and returns how many were released.
func (s *Store) RevokeOwner(owner string) int {
	s.mu.Lock()
	n := 0
	for id, res := range s.items {
		if res.Owner == owner {
			delete(s.items, id)
			n++
		}
	}
	s.mu.Unlock()

	metrics.ResourcesLive.Sub(float64(n))
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
