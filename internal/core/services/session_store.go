package services

import (
	"context"
	"errors"
	"sync"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"

	"go.uber.org/zap"
)

var ErrAlreadyBound = errors.New("session store is already bound to an identity client")

type subscriber struct {
	id uint64
	fn func(prev, next domain.SessionSnapshot)
}

// SessionStore holds the single live session of the process. The only writer is the
// listener installed by Bind; everything else reads snapshots or subscribes.
type SessionStore struct {
	logger  *zap.SugaredLogger
	metrics Metrics

	// applyMu serialises transitions including subscriber callbacks.
	applyMu sync.Mutex

	mu       sync.RWMutex
	snapshot domain.SessionSnapshot

	subMu  sync.Mutex
	hooks  []subscriber
	subs   []subscriber
	nextID uint64

	bindMu sync.Mutex
	unbind func()

	ready     chan struct{}
	readyOnce sync.Once
}

func NewSessionStore(logger *zap.SugaredLogger, metrics Metrics) *SessionStore {
	return &SessionStore{
		logger:   logger,
		metrics:  metricsOrNop(metrics),
		snapshot: domain.SessionSnapshot{State: domain.SessionUnknown},
		ready:    make(chan struct{}),
	}
}

// Bind installs the store's listener on the identity client.
func (s *SessionStore) Bind(identity ports.IdentityClient) error {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	if s.unbind != nil {
		return ErrAlreadyBound
	}
	s.unbind = identity.OnSessionChange(s.apply)
	return nil
}

// Unbind detaches the listener. The current snapshot is kept.
func (s *SessionStore) Unbind() {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	if s.unbind != nil {
		s.unbind()
		s.unbind = nil
	}
}

func (s *SessionStore) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe registers fn to run after each transition is published.
func (s *SessionStore) Subscribe(fn func(prev, next domain.SessionSnapshot)) func() {
	return s.register(&s.subs, fn)
}

// BeforePublish registers fn to run while the transition is still private:
// readers keep seeing prev until every hook has returned. Hooks must not call
// Snapshot.
func (s *SessionStore) BeforePublish(fn func(prev, next domain.SessionSnapshot)) func() {
	return s.register(&s.hooks, fn)
}

func (s *SessionStore) register(list *[]subscriber, fn func(prev, next domain.SessionSnapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	*list = append(*list, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range *list {
			if sub.id == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

func (s *SessionStore) listeners() (hooks, subs []subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return append([]subscriber(nil), s.hooks...), append([]subscriber(nil), s.subs...)
}

func (s *SessionStore) WaitReady(ctx context.Context) (domain.SessionSnapshot, error) {
	select {
	case <-s.ready:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

func (s *SessionStore) apply(ev domain.SessionEvent) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	next := domain.SessionSnapshot{State: domain.SessionAnonymous}
	if ev.Session != nil {
		if ev.Session.IdentityID == "" || ev.Session.Credential == "" {
			s.logger.Warnw("Ignoring session without identity or credential, treating as signed out",
				"reason", ev.Reason,
			)
		} else {
			sess := *ev.Session
			next = domain.SessionSnapshot{State: domain.SessionAuthenticated, Session: &sess}
		}
	}

	hooks, subs := s.listeners()

	s.mu.Lock()
	prev := s.snapshot
	for _, hook := range hooks {
		hook.fn(prev, next)
	}
	s.snapshot = next
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })

	if prev.State != next.State {
		s.metrics.SessionTransition(prev.State, next.State)
	}
	s.logger.Infow("Session changed",
		"reason", ev.Reason,
		"from", prev.State.String(),
		"to", next.State.String(),
		"identity_id", next.IdentityID(),
	)

	for _, sub := range subs {
		sub.fn(prev, next)
	}
}
