package component

import (
	"slices"
	"strings"
	"sync"
	"time"
)

type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
)

func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

type Event struct {
	Type      EventType
	Component *Component
	Timestamp time.Time
}

// Index maps selectors to components. All methods are safe for concurrent
// use; callers never lock.
type Index struct {
	mu         sync.RWMutex
	components map[string]*Component
	watchers   []chan Event
}

func NewIndex() *Index {
	return &Index{
		components: make(map[string]*Component),
	}
}

// Put stores c under its selector, replacing any earlier component with the
// same selector. It reports whether an entry was replaced.
func (idx *Index) Put(c *Component) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, replaced := idx.components[c.Selector]
	idx.components[c.Selector] = c

	event := Event{Type: EventTypeAdded, Component: c, Timestamp: time.Now()}
	if replaced {
		event.Type = EventTypeUpdated
	}

	for _, w := range idx.watchers {
		select {
		case w <- event:
		default:
			// slow watcher, drop
		}
	}

	return replaced
}

func (idx *Index) Get(selector string) (*Component, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, ok := idx.components[selector]
	return c, ok
}

// All returns every component ordered by selector.
func (idx *Index) All() []*Component {
	idx.mu.RLock()
	out := make([]*Component, 0, len(idx.components))
	for _, c := range idx.components {
		out = append(out, c)
	}
	idx.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Component) int {
		return strings.Compare(a.Selector, b.Selector)
	})
	return out
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.components)
}

// Watch returns a channel receiving an event for every Put. Events are
// dropped when the channel's buffer is full.
func (idx *Index) Watch() <-chan Event {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ch := make(chan Event, 100)
	idx.watchers = append(idx.watchers, ch)
	return ch
}

// Unwatch closes a channel returned by Watch.
func (idx *Index) Unwatch(ch <-chan Event) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, w := range idx.watchers {
		if w == ch {
			close(w)
			idx.watchers = append(idx.watchers[:i], idx.watchers[i+1:]...)
			return
		}
	}
}
