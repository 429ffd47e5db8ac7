package dedup

import (
	"strings"
	"sync"
)

// Filter remembers raw endpoint strings seen during one run. Identity is
// the exact trimmed string, the same key the ledger uses.
type Filter struct {
	seen map[string]struct{}
	mu   sync.Mutex
}

func New() *Filter {
	return &Filter{
		seen: make(map[string]struct{}),
	}
}

// Seen reports whether raw was already offered and marks it as seen.
func (f *Filter) Seen(raw string) bool {
	key := strings.TrimSpace(raw)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.seen[key]; exists {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

// Unique returns the first occurrence of every string in items, in order.
func (f *Filter) Unique(items []string) []string {
	out := make([]string, 0, len(items))
	for _, raw := range items {
		if !f.Seen(raw) {
			out = append(out, strings.TrimSpace(raw))
		}
	}
	return out
}
