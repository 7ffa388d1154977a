package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection is the collection holding session documents
const DefaultCollection = "sessions"

// SessionRepository stores live sessions in a Firestore collection so that
// several server replicas can share them.
type SessionRepository struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

var _ interfaces.SessionRepository = (*SessionRepository)(nil)

// Option is a functional option for SessionRepository
type Option func(*SessionRepository)

// WithCollection sets the collection name
func WithCollection(name string) Option {
	return func(r *SessionRepository) {
		if name != "" {
			r.collection = name
		}
	}
}

// New connects to the Firestore database of projectID
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*SessionRepository, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	r := &SessionRepository{
		client:     client,
		collection: DefaultCollection,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the underlying client
func (r *SessionRepository) Close() error {
	return r.client.Close()
}

func (r *SessionRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(id)
}

// Put stores the session document
func (r *SessionRepository) Put(ctx context.Context, session *model.Session) error {
	if session == nil || session.ID == "" {
		return goerr.New("session ID is required")
	}

	if _, err := r.doc(session.ID).Set(ctx, session); err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.V("session_id", session.ID))
	}
	return nil
}

// Get loads the session document
func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "empty session ID")
	}

	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "no session document", goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
	}

	var session model.Session
	if err := snap.DataTo(&session); err != nil {
		return nil, goerr.Wrap(err, "failed to decode session", goerr.V("session_id", id))
	}

	if session.IsExpired(r.now()) {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session expired", goerr.V("session_id", id))
	}
	return &session, nil
}

// Update runs fn inside a transaction so that concurrent writers, including
// other replicas, retry instead of overwriting each other
func (r *SessionRepository) Update(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	if id == "" {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "empty session ID")
	}

	ref := r.doc(id)
	var updated *model.Session
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrSessionNotFound, "no session document", goerr.V("session_id", id))
			}
			return goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
		}

		var session model.Session
		if err := snap.DataTo(&session); err != nil {
			return goerr.Wrap(err, "failed to decode session", goerr.V("session_id", id))
		}
		if session.IsExpired(r.now()) {
			return goerr.Wrap(model.ErrSessionNotFound, "session expired", goerr.V("session_id", id))
		}

		if err := fn(&session); err != nil {
			return err
		}
		if err := tx.Set(ref, &session); err != nil {
			return goerr.Wrap(err, "failed to put session", goerr.V("session_id", id))
		}
		updated = &session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the session document
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.doc(id).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return goerr.Wrap(err, "failed to delete session", goerr.V("session_id", id))
	}
	return nil
}

// DeleteExpired removes every session document whose expiry is before now
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	logger := ctxlog.From(ctx)

	iter := r.client.Collection(r.collection).Where("expires_at", "<", now).Documents(ctx)
	defer iter.Stop()

	var n int
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return n, goerr.Wrap(err, "failed to query expired sessions")
		}

		if _, err := snap.Ref.Delete(ctx); err != nil {
			logger.Warn("Failed to delete expired session",
				"session_id", snap.Ref.ID,
				"error", err,
			)
			continue
		}
		n++
	}
	return n, nil
}
