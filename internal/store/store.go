// Package store keeps each signed-in user's dashboard session in memory.
// Nothing here outlives the process.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/meeting"
	"github.com/yoomapp/yoom-web/internal/metrics"
	"github.com/yoomapp/yoom-web/internal/model"
)

var ErrNotFound = errors.New("not found")

const DefaultIdleTTL = 30 * time.Minute

// MachineFactory builds the meeting machine for a new session, wiring the
// outbox in as notifier, clipboard and navigator.
type MachineFactory func(user model.User, out *Outbox) *meeting.Machine

type Session struct {
	User    model.User
	Machine *meeting.Machine
	Outbox  *Outbox

	lastSeen time.Time
}

type Options struct {
	IdleTTL time.Duration
	Now     func() time.Time
	Logger  zerolog.Logger
}

type Store struct {
	newMachine MachineFactory
	ttl        time.Duration
	now        func() time.Time
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(factory MachineFactory, opts Options) *Store {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		newMachine: factory,
		ttl:        opts.IdleTTL,
		now:        opts.Now,
		log:        opts.Logger.With().Str("component", "session_store").Logger(),
		sessions:   make(map[string]*Session),
	}
}

// Session returns the user's session, creating it on first use. Tabs of the
// same user share one session.
func (s *Store) Session(user model.User) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if sess, ok := s.sessions[user.ID]; ok {
		sess.lastSeen = now
		return sess
	}
	out := &Outbox{}
	sess := &Session{
		User:     user,
		Machine:  s.newMachine(user, out),
		Outbox:   out,
		lastSeen: now,
	}
	s.sessions[user.ID] = sess
	metrics.Default().DashboardSessions.Set(float64(len(s.sessions)))
	s.log.Debug().Str("user_id", user.ID).Msg("dashboard session created")
	return sess
}

func (s *Store) Lookup(userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Remove drops the user's session, e.g. on sign-out.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	metrics.Default().DashboardSessions.Set(float64(len(s.sessions)))
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepIdle evicts sessions not seen within the idle TTL. Sessions with a
// meeting creation in flight are kept until it settles.
func (s *Store) SweepIdle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.After(cutoff) {
			continue
		}
		if sess.Machine.View().Creating {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	metrics.Default().DashboardSessions.Set(float64(len(s.sessions)))
	if evicted > 0 {
		s.log.Info().Int("evicted", evicted).Int("remaining", len(s.sessions)).Msg("swept idle dashboard sessions")
	}
	return nil
}
