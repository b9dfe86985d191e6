// Package realtime fans out change notifications to subscribers and keeps
// client-side lists in sync with them.
package realtime

import (
	"log"
	"sync"
)

// DefaultBuffer is the channel capacity of a subscription.
const DefaultBuffer = 16

// Message is one notification.
type Message struct {
	Topic string `json:"type"`
	Data  any    `json:"data"`
}

type subscriber struct {
	topic string
	ch    chan Message
}

// Hub delivers published messages to every subscriber of the topic. Sends
// never block: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscriber)}
}

// Subscribe registers for topic; an empty topic receives everything. The
// returned func unsubscribes and closes the channel. It is safe to call
// more than once.
func (h *Hub) Subscribe(topic string, buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Message, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = subscriber{topic: topic, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends data on topic to all matching subscribers.
func (h *Hub) Publish(topic string, data any) {
	msg := Message{Topic: topic, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, s := range h.subs {
		if s.topic != "" && s.topic != topic {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			log.Printf("realtime: subscriber %d full, dropped %s", id, topic)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
