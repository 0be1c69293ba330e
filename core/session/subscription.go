package session

import "sync"

// Subscription is a handle on a listener that can be released.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a func to a Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

// Subscriptions releases every added Subscription at once.
// Once released, any Subscription added afterwards is released immediately.
type Subscriptions struct {
	mu     sync.Mutex
	subs   []Subscription
	closed bool
}

func (s *Subscriptions) Add(sub Subscription) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

func (s *Subscriptions) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *Subscriptions) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
