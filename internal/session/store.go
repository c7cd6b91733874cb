package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout       = 30 * time.Minute
	DefaultMaxTurns      = 50
	DefaultSweepInterval = 10 * time.Minute
)

// Options configures a Store.
type Options struct {
	// Timeout is how long a session may be idle before it expires.
	Timeout time.Duration
	// MaxTurns bounds the retained turn history.
	MaxTurns int
	// Now overrides the clock. Tests use it to simulate idle time.
	Now func() time.Time
	// OnExpire is called with the id of every session dropped for being idle.
	OnExpire func(id string)
}

// Store owns every live session. Sessions exist only in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	timeout  time.Duration
	maxTurns int
	now      func() time.Time
	onExpire func(id string)
}

// NewStore creates an empty Store.
func NewStore(opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  opts.Timeout,
		maxTurns: opts.MaxTurns,
		now:      opts.Now,
		onExpire: opts.OnExpire,
	}
}

// GetOrCreate returns the live session with the given id. An empty, unknown
// or expired id yields a brand new session; created reports which case applied.
// Expired sessions are never resumed.
func (st *Store) GetOrCreate(id string) (sess *Session, created bool) {
	now := st.now()
	var expired string

	st.mu.Lock()
	if existing, ok := st.sessions[id]; ok && id != "" {
		if !st.stale(existing, now) {
			existing.touch(now)
			st.mu.Unlock()
			return existing, false
		}
		delete(st.sessions, id)
		expired = id
	}
	sess = st.newSessionLocked(now)
	st.mu.Unlock()

	if expired != "" {
		log.Printf("session: %s expired, starting %s", expired, sess.ID)
		st.expired(expired)
	}
	return sess, true
}

// Get returns a live session without creating or refreshing it.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok || st.stale(sess, st.now()) {
		return nil, false
	}
	return sess, true
}

// Len returns the number of sessions held, including stale ones not yet swept.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// CountActive returns the number of sessions that are neither completed nor
// idle past the timeout. A session locked by an in-flight request counts as
// active.
func (st *Store) CountActive() int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for _, sess := range st.sessions {
		if st.stale(sess, now) {
			continue
		}
		if !sess.mu.TryLock() {
			n++
			continue
		}
		if sess.Status == StatusActive {
			n++
		}
		sess.mu.Unlock()
	}
	return n
}

// RecordTurn appends a turn, refreshes the session's activity and drops the
// oldest turns beyond the configured maximum. The caller must hold the
// session lock.
func (st *Store) RecordTurn(sess *Session, role Role, content string, meta *TurnMetadata) Turn {
	now := st.now()
	turn := Turn{
		ID:        uuid.NewString(),
		Timestamp: now,
		Role:      role,
		Content:   content,
		Metadata:  meta,
	}
	sess.Turns = append(sess.Turns, turn)
	if over := len(sess.Turns) - st.maxTurns; over > 0 {
		kept := make([]Turn, st.maxTurns)
		copy(kept, sess.Turns[over:])
		sess.Turns = kept
	}
	sess.touch(now)
	return turn
}

// SweepExpired removes every session idle longer than the timeout and
// returns how many were removed. Sessions locked by an in-flight request
// are skipped; they are picked up by a later sweep if still idle.
func (st *Store) SweepExpired() int {
	now := st.now()
	var removed []string

	st.mu.Lock()
	for id, sess := range st.sessions {
		if !st.stale(sess, now) {
			continue
		}
		if !sess.mu.TryLock() {
			continue
		}
		// Recheck under the session lock in case a request finished in between.
		if st.stale(sess, now) {
			delete(st.sessions, id)
			removed = append(removed, id)
		}
		sess.mu.Unlock()
	}
	st.mu.Unlock()

	for _, id := range removed {
		st.expired(id)
	}
	if len(removed) > 0 {
		log.Printf("session: swept %d expired sessions", len(removed))
	}
	return len(removed)
}

// StartSweeper runs SweepExpired on the given interval until ctx is cancelled.
func (st *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.SweepExpired()
			}
		}
	}()
}

func (st *Store) stale(sess *Session, now time.Time) bool {
	return now.Sub(sess.LastActivity()) > st.timeout
}

func (st *Store) newSessionLocked(now time.Time) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		StartedAt: now,
		Context: Context{
			Preferences: make(map[string]string),
		},
		Status: StatusActive,
	}
	sess.touch(now)
	st.sessions[sess.ID] = sess
	return sess
}

func (st *Store) expired(id string) {
	if st.onExpire != nil {
		st.onExpire(id)
	}
}
