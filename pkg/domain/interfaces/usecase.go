package interfaces

import (
	"context"

	"github.com/m-mizutani/snipzip/pkg/domain/model"
)

// SessionUseCase manages the slots of interactive sessions
type SessionUseCase interface {
	// Create starts a new session with the default number of empty slots
	Create(ctx context.Context) (*model.Session, error)

	// Get returns a live session
	Get(ctx context.Context, id string) (*model.Session, error)

	// Grow adds one empty slot to the session
	Grow(ctx context.Context, id string) (*model.Session, error)

	// UpdateSlot replaces the slot at index
	UpdateSlot(ctx context.Context, id string, index int, entry model.Entry) (*model.Session, error)

	// Submit replaces slot values in order with entries
	Submit(ctx context.Context, id string, entries []model.Entry) (*model.Session, error)

	// Preview lists the files the session would archive
	Preview(ctx context.Context, id string) (*model.Preview, error)

	// Build creates an archive from the session's current file set
	Build(ctx context.Context, id string) (*model.Archive, error)

	// Delete ends the session
	Delete(ctx context.Context, id string) error
}

// ArchiveUseCase builds archives without a session
type ArchiveUseCase interface {
	// Build creates an archive from entries, skipping incomplete ones
	Build(ctx context.Context, entries []model.Entry) (*model.Archive, error)
}
