package herodb

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Subscription identifies a live subscriber on a SessionSubject.
type Subscription string

type subscriber struct {
	id Subscription
	fn func(*Session)
}

// SessionSubject is a latest-value broadcast cell for the current session.
// Set persists the value to the backing store before notifying subscribers,
// so a crash between persist and notify can never leave a subscriber holding
// a session that is absent from storage. Replay depth is one: a new
// subscriber immediately receives the current value.
//
// Notification runs synchronously under the subject's lock, which gives
// subscribers a total order on session updates. Callbacks must not call Set
// or Subscribe reentrantly.
type SessionSubject struct {
	mu          sync.Mutex
	current     *Session
	store       SessionStore
	logger      Logger
	subscribers []subscriber
}

// NewSessionSubject creates a subject backed by the given store.
func NewSessionSubject(store SessionStore) *SessionSubject {
	return &SessionSubject{
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used for store write failures.
func (s *SessionSubject) WithLogger(logger Logger) *SessionSubject {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Current returns a copy of the current session, or nil when anonymous.
func (s *SessionSubject) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.current)
}

// Set replaces the current session (nil clears it), persisting to the store
// first and then notifying all live subscribers in subscription order.
// Store failures are logged and do not abort the notify: after boot, memory
// is authoritative and storage only transiently leads it.
func (s *SessionSubject) Set(ctx context.Context, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, session); err != nil {
		s.logger.Error("session store write failed: %v", err)
	}

	s.current = cloneSession(session)
	s.notify()
}

// Seed installs a session restored from storage without writing it back,
// then notifies subscribers. Used once at boot.
func (s *SessionSubject) Seed(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = cloneSession(session)
	s.notify()
}

// Subscribe registers fn, immediately invoking it with the current value and
// then with every subsequent value until unsubscribed.
func (s *SessionSubject) Subscribe(fn func(*Session)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := Subscription(uuid.NewString())
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	fn(cloneSession(s.current))
	return id
}

// Unsubscribe removes the subscriber for the given handle. Unknown handles
// are ignored.
func (s *SessionSubject) Unsubscribe(id Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub.id == id {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

func (s *SessionSubject) persist(ctx context.Context, session *Session) error {
	if s.store == nil {
		return nil
	}
	if session == nil {
		return s.store.Delete(ctx)
	}
	return s.store.Save(ctx, session)
}

func (s *SessionSubject) notify() {
	for _, sub := range s.subscribers {
		sub.fn(cloneSession(s.current))
	}
}

func cloneSession(session *Session) *Session {
	if session == nil {
		return nil
	}
	clone := *session
	return &clone
}
