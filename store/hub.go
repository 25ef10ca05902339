package store

import "sync"

// Hub fans collection snapshots out to subscribers. Each subscription gets
// its own delivery goroutine, so snapshots arrive in publish order within
// one subscription and a slow callback never blocks the writer or other
// subscribers. No ordering holds across different subscriptions.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: map[string][]*subscriber{}}
}

type subscriber struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Snapshot
	stopped bool
}

func newSubscriber() *subscriber {
	s := &subscriber{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Subscribe registers fn for a collection. The returned cancel stops
// future deliveries; a delivery already handed to fn may still complete
// after cancel returns.
func (h *Hub) Subscribe(collection string, fn func(Snapshot)) CancelFunc {
	return h.SubscribeWithInitial(collection, nil, fn)
}

// SubscribeWithInitial additionally queues an initial snapshot, delivered
// to the new subscriber only, before any published writes.
func (h *Hub) SubscribeWithInitial(collection string, initial func() Snapshot, fn func(Snapshot)) CancelFunc {
	sub := newSubscriber()
	go sub.run(fn)

	h.mu.Lock()
	h.subs[collection] = append(h.subs[collection], sub)
	if initial != nil {
		sub.push(initial())
	}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		list := h.subs[collection]
		for i, s := range list {
			if s == sub {
				h.subs[collection] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
		sub.stop()
	}
}

// Publish queues a snapshot for every subscriber of the collection.
func (h *Hub) Publish(collection string, snap Snapshot) {
	h.mu.Lock()
	subs := make([]*subscriber, len(h.subs[collection]))
	copy(subs, h.subs[collection])
	h.mu.Unlock()

	for _, s := range subs {
		s.push(snap)
	}
}

func (s *subscriber) push(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.queue = append(s.queue, snap)
	s.cond.Signal()
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber) run(fn func(Snapshot)) {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		snap := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn(snap)
	}
}
