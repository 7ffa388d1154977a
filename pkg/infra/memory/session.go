package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
)

// SessionRepository keeps sessions in process memory. Stored and returned
// sessions are copies, so callers never share slot slices.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	now      func() time.Time
}

var _ interfaces.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates an empty in-memory repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*model.Session),
		now:      time.Now,
	}
}

// Put stores a copy of the session
func (r *SessionRepository) Put(ctx context.Context, session *model.Session) error {
	if session == nil || session.ID == "" {
		return goerr.New("session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session.Clone()
	return nil
}

// Get returns a copy of the session
func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || session.IsExpired(r.now()) {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "no live session", goerr.V("session_id", id))
	}
	return session.Clone(), nil
}

// Update applies fn to a copy of the session under the write lock
func (r *SessionRepository) Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[id]
	if !ok || stored.IsExpired(r.now()) {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "no live session", goerr.V("session_id", id))
	}

	session := stored.Clone()
	if err := fn(session); err != nil {
		return nil, err
	}
	r.sessions[id] = session.Clone()
	return session, nil
}

// Delete removes the session
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteExpired removes every session expired at now
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id, session := range r.sessions {
		if session.IsExpired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired ones included
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
