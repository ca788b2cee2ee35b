package scanner

import (
	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/observability"
)

// Subscriber receives candidates pushed through Notify.
type Subscriber func(domain.Candidate)

type subscription struct {
	id string
	fn Subscriber
}

// Subscribe registers fn under id, replacing any subscriber with that id.
// Scan does not call subscribers; callers push with Notify.
func (s *Scanner) Subscribe(id string, fn Subscriber) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for i := range s.subs {
		if s.subs[i].id == id {
			s.subs[i].fn = fn
			return
		}
	}
	s.subs = append(s.subs, subscription{id: id, fn: fn})
}

// Unsubscribe removes the subscriber registered under id.
func (s *Scanner) Unsubscribe(id string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for i := range s.subs {
		if s.subs[i].id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Notify delivers c to every subscriber in registration order.
// A panicking subscriber is recovered and does not stop delivery.
func (s *Scanner) Notify(c domain.Candidate) {
	s.subsMu.RLock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, sub := range subs {
		s.deliver(sub, c)
	}
}

func (s *Scanner) deliver(sub subscription, c domain.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordSubscriberPanic()
			s.opts.Logger.Error().
				Str("subscriber", sub.id).
				Str("mint", c.Pair.Mint()).
				Interface("panic", r).
				Msg("subscriber panicked")
		}
	}()
	sub.fn(c)
}
