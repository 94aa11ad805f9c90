package validatoridx

import (
	"strings"
	"sync"

	"github.com/tos-network/valreg/common"
)

// defaultQueryLimit caps Query results when no limit is given.
const defaultQueryLimit = 100

// Registry is the in-memory validator index. It keeps the latest entry per
// mining key and remembers insertion order.
type Registry struct {
	mu      sync.RWMutex
	entries map[common.Address]*Entry
	order   []common.Address
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[common.Address]*Entry)}
}

// Upsert inserts or replaces the entry for e.MiningKey. A new key is placed
// after every existing one.
func (r *Registry) Upsert(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.MiningKey]; !ok {
		r.order = append(r.order, e.MiningKey)
	}
	clone := e
	r.entries[e.MiningKey] = &clone
}

// Get returns the entry for mining, or false if not indexed.
func (r *Registry) Get(mining common.Address) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[mining]
	if !ok {
		return Entry{}, false
	}
	return *p, true
}

// Query returns the entries matching q in insertion order.
func (r *Registry) Query(q Query) []Entry {
	if q.Limit <= 0 {
		q.Limit = defaultQueryLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, mining := range r.order {
		e := r.entries[mining]
		if !matches(e, &q) {
			continue
		}
		out = append(out, *e)
		if len(out) == q.Limit {
			break
		}
	}
	return out
}

// Len returns the number of indexed validators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func matches(e *Entry, q *Query) bool {
	if !q.IncludeDisabled && e.Disabled() {
		return false
	}
	if q.State != "" && !strings.EqualFold(e.Validator.State, q.State) {
		return false
	}
	if q.LicenseExpiringBefore != 0 && (e.Genesis || e.Validator.LicenseExpiredAt >= q.LicenseExpiringBefore) {
		return false
	}
	return q.Filter.Match(e)
}
