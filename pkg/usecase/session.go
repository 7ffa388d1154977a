package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
	"github.com/m-mizutani/snipzip/pkg/domain/types"
)

// DefaultSessionTTL is how long an idle session is kept
const DefaultSessionTTL = 24 * time.Hour

// SessionOption is a functional option for the session use case
type SessionOption func(*sessionUseCase)

// WithSessionTTL sets the idle lifetime of a session
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(uc *sessionUseCase) {
		uc.ttl = ttl
	}
}

// WithInitialSlots sets the number of empty slots of a new session
func WithInitialSlots(n int) SessionOption {
	return func(uc *sessionUseCase) {
		uc.initialSlots = n
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) SessionOption {
	return func(uc *sessionUseCase) {
		uc.now = now
	}
}

// WithIDGenerator replaces the session ID generator
func WithIDGenerator(gen func() string) SessionOption {
	return func(uc *sessionUseCase) {
		uc.newID = gen
	}
}

type sessionUseCase struct {
	repo         interfaces.SessionRepository
	ttl          time.Duration
	initialSlots int
	now          func() time.Time
	newID        func() string
}

// NewSession creates a new instance of SessionUseCase
func NewSession(repo interfaces.SessionRepository, opts ...SessionOption) interfaces.SessionUseCase {
	uc := &sessionUseCase{
		repo:         repo,
		ttl:          DefaultSessionTTL,
		initialSlots: types.DefaultSlotCount,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Create starts a new session
func (uc *sessionUseCase) Create(ctx context.Context) (*model.Session, error) {
	session := model.NewSession(uc.newID(), uc.initialSlots, uc.now(), uc.ttl)
	if err := uc.repo.Put(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to store new session")
	}

	ctxlog.From(ctx).Debug("Created session",
		"session_id", session.ID,
		"slots", len(session.Slots),
		"expires_at", session.ExpiresAt,
	)
	return session, nil
}

// Get returns the session and extends its expiry
func (uc *sessionUseCase) Get(ctx context.Context, id string) (*model.Session, error) {
	return uc.update(ctx, id, func(*model.Session) error { return nil })
}

// Grow adds one empty slot
func (uc *sessionUseCase) Grow(ctx context.Context, id string) (*model.Session, error) {
	return uc.update(ctx, id, func(s *model.Session) error {
		s.Grow()
		return nil
	})
}

// UpdateSlot replaces one slot
func (uc *sessionUseCase) UpdateSlot(ctx context.Context, id string, index int, entry model.Entry) (*model.Session, error) {
	return uc.update(ctx, id, func(s *model.Session) error {
		return s.SetSlot(index, entry)
	})
}

// Submit replaces slot values in order
func (uc *sessionUseCase) Submit(ctx context.Context, id string, entries []model.Entry) (*model.Session, error) {
	return uc.update(ctx, id, func(s *model.Session) error {
		s.Submit(entries)
		return nil
	})
}

// Preview lists the files the session would archive. Slots holding only one
// of filename and content are reported but do not fail the call.
func (uc *sessionUseCase) Preview(ctx context.Context, id string) (*model.Preview, error) {
	session, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	preview := model.NewPreview(session.FileSet(), session.Skipped())
	if len(preview.Skipped) > 0 {
		ctxlog.From(ctx).Warn("Incomplete slots left out of file set",
			"session_id", id,
			"slots", preview.Skipped,
		)
	}
	return preview, nil
}

// Build archives the session's current file set
func (uc *sessionUseCase) Build(ctx context.Context, id string) (*model.Archive, error) {
	session, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	archive, err := newArchive(ctx, session.FileSet())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build session archive", goerr.V("session_id", id))
	}
	return archive, nil
}

// Delete ends the session
func (uc *sessionUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V("session_id", id))
	}
	ctxlog.From(ctx).Debug("Deleted session", "session_id", id)
	return nil
}

// update applies fn and refreshes the expiry in one repository transaction
func (uc *sessionUseCase) update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	session, err := uc.repo.Update(ctx, id, func(s *model.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		s.Touch(uc.now(), uc.ttl)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update session", goerr.V("session_id", id))
	}
	return session, nil
}
