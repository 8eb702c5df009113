package history

import (
	"sync"
)

// Entry is one item of the session history.
type Entry struct {
	State *State
	URL   string
}

// MemoryBrowser is an in-memory session history with back/forward.
type MemoryBrowser struct {
	mu       sync.Mutex
	path     string
	entries  []Entry
	index    int
	popstate func(*State)
}

// NewMemoryBrowser starts a history at path with the given search string
// (without '?'). The first entry carries no state, like a fresh page load.
func NewMemoryBrowser(path, search string) *MemoryBrowser {
	return &MemoryBrowser{
		path:    path,
		entries: []Entry{{URL: URL(path, search)}},
	}
}

// Bind delivers popstate events to c.
func (b *MemoryBrowser) Bind(c *Controller) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.popstate = c.PopState
}

// Path implements Browser.
func (b *MemoryBrowser) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// PushState implements Browser. Forward entries are discarded.
func (b *MemoryBrowser) PushState(state State, url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries[:b.index+1], Entry{State: &state, URL: url})
	b.index = len(b.entries) - 1
}

// Current returns the active entry.
func (b *MemoryBrowser) Current() Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[b.index]
}

// Len returns the number of entries.
func (b *MemoryBrowser) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Back moves one entry back and fires popstate. It reports false at the
// first entry.
func (b *MemoryBrowser) Back() bool {
	return b.step(-1)
}

// Forward moves one entry forward and fires popstate. It reports false at
// the last entry.
func (b *MemoryBrowser) Forward() bool {
	return b.step(1)
}

func (b *MemoryBrowser) step(delta int) bool {
	b.mu.Lock()
	next := b.index + delta
	if next < 0 || next >= len(b.entries) {
		b.mu.Unlock()
		return false
	}
	b.index = next
	state := b.entries[next].State
	popstate := b.popstate
	b.mu.Unlock()

	if popstate != nil {
		popstate(state)
	}
	return true
}
