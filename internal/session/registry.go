package session

import (
	"container/list"
	"sort"
	"sync"
	"time"

	"github.com/koopa0/finsight/internal/log"
)

const (
	// DefaultCapacity is the registry capacity when none is configured.
	DefaultCapacity = 512

	// DefaultTTL is the idle session lifetime when none is configured.
	DefaultTTL = 30 * time.Minute
)

// Registry is a bounded, thread-safe session store with LRU eviction
// and idle expiry. Expired sessions are reaped lazily on access.
type Registry struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
	logger   log.Logger
}

type entry struct {
	id   string
	sess *Session
}

// NewRegistry creates a registry. Non-positive capacity or TTL fall back
// to the defaults. The logger may be nil for tests.
func NewRegistry(capacity int, ttl time.Duration, logger log.Logger) *Registry {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
		logger:   logger,
	}
}

// GetOrCreate returns the live session for id, creating one if the id is
// unknown or its previous session has expired. The session is marked as
// most recently used.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	if elem, ok := r.items[id]; ok {
		ent := elem.Value.(*entry)
		if now.Sub(ent.sess.idleSince()) <= r.ttl {
			r.lru.MoveToFront(elem)
			ent.sess.touch(now)
			return ent.sess
		}
		// Expired: drop the stale conversation and start over
		r.lru.Remove(elem)
		delete(r.items, id)
		r.logger.Debug("session expired", "session_id", id)
	}

	sess := newSession(id, now)
	elem := r.lru.PushFront(&entry{id: id, sess: sess})
	r.items[id] = elem

	// Evict oldest beyond capacity
	if r.lru.Len() > r.capacity {
		oldest := r.lru.Back()
		if oldest != nil {
			ent := oldest.Value.(*entry)
			r.lru.Remove(oldest)
			delete(r.items, ent.id)
			r.logger.Debug("session evicted", "session_id", ent.id)
		}
	}

	return sess
}

// Len returns the number of sessions currently held, including any that
// have expired but not yet been reaped.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// Info describes one live session for introspection endpoints.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
	Messages  int       `json:"messages"`
}

// Snapshot returns the live sessions ordered by recency, reaping any
// that have expired.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	infos := make([]Info, 0, r.lru.Len())

	var expired []*list.Element
	for elem := r.lru.Front(); elem != nil; elem = elem.Next() {
		ent := elem.Value.(*entry)
		if now.Sub(ent.sess.idleSince()) > r.ttl {
			expired = append(expired, elem)
			continue
		}
		infos = append(infos, Info{
			ID:        ent.id,
			CreatedAt: ent.sess.CreatedAt(),
			LastSeen:  ent.sess.idleSince(),
			Messages:  ent.sess.Len(),
		})
	}
	for _, elem := range expired {
		ent := elem.Value.(*entry)
		r.lru.Remove(elem)
		delete(r.items, ent.id)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastSeen.After(infos[j].LastSeen)
	})
	return infos
}
