package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/snipzip/pkg/domain/model"
)

// SessionRepository stores live sessions until they expire or are deleted
type SessionRepository interface {
	// Put stores the session, replacing any session with the same ID
	Put(ctx context.Context, session *model.Session) error

	// Get returns the session or model.ErrSessionNotFound if it is missing or expired
	Get(ctx context.Context, id string) (*model.Session, error)

	// Update applies fn to the session and stores the result as one atomic
	// step, so concurrent updates of the same session are not lost. fn may run
	// more than once and nothing is stored when it returns an error.
	Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every session expired at now and returns how many were removed
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
