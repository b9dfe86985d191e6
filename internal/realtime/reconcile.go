package realtime

import (
	"slices"
	"sync"
)

// List is an ordered set of items identified by key. Applying the same
// change twice, or independent changes in any order, yields the same list.
type List[T any] struct {
	key  func(T) string
	cmp  func(a, b T) int

	mu    sync.Mutex
	items map[string]T
}

// NewList creates a list that identifies items with key and orders them
// with cmp.
func NewList[T any](key func(T) string, cmp func(a, b T) int) *List[T] {
	return &List[T]{key: key, cmp: cmp, items: make(map[string]T)}
}

// Upsert inserts item or replaces the item with the same key.
func (l *List[T]) Upsert(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[l.key(item)] = item
}

// Remove deletes the item with key, if present.
func (l *List[T]) Remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, key)
}

// Reset replaces the contents with items.
func (l *List[T]) Reset(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]T, len(items))
	for _, it := range items {
		l.items[l.key(it)] = it
	}
}

// Items returns the items in order.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it)
	}
	slices.SortStableFunc(out, func(a, b T) int {
		if c := l.cmp(a, b); c != 0 {
			return c
		}
		ka, kb := l.key(a), l.key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
