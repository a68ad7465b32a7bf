package realtime

import (
	"context"
	"sync"

	"civic/internal/platform/metrics"
)

const defaultBuffer = 64

// Hub delivers changes to in-process subscribers. Each subscriber has a
// bounded buffer; when it is full the change is dropped for that subscriber
// so a slow reader never blocks a writer.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	metrics *metrics.Metrics
	closed  bool
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), metrics: m}
}

type Subscription struct {
	table string
	ch    chan Change
	hub   *Hub
	once  sync.Once
}

// C yields changes for the subscribed table. It is closed by Close or when
// the hub shuts down.
func (s *Subscription) C() <-chan Change { return s.ch }

func (s *Subscription) Table() string { return s.table }

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Subscribe registers interest in table. buffer <= 0 uses the default size.
func (h *Hub) Subscribe(table string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	sub := &Subscription{table: table, ch: make(chan Change, buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	if h.subs[table] == nil {
		h.subs[table] = make(map[*Subscription]struct{})
	}
	h.subs[table][sub] = struct{}{}
	if h.metrics != nil {
		h.metrics.IncrementSubscribers()
	}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subs[sub.table]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subs, sub.table)
	}
	sub.once.Do(func() { close(sub.ch) })
	if h.metrics != nil {
		h.metrics.DecrementSubscribers()
	}
}

// Publish implements Publisher by broadcasting locally.
func (h *Hub) Publish(_ context.Context, change Change) error {
	h.Broadcast(change)
	return nil
}

// Broadcast delivers change to every subscriber of its table and reports
// how many received it.
func (h *Hub) Broadcast(change Change) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[change.Table] {
		select {
		case sub.ch <- change:
			delivered++
		default:
			if h.metrics != nil {
				h.metrics.IncrementDropped(change.Table)
			}
		}
	}
	return delivered
}

// Subscribers reports the number of subscribers of table.
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for table, subs := range h.subs {
		for sub := range subs {
			sub.once.Do(func() { close(sub.ch) })
			if h.metrics != nil {
				h.metrics.DecrementSubscribers()
			}
		}
		delete(h.subs, table)
	}
}
