package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Session holds the editable slots of one interactive user. It is owned by a
// single user and mutated only through its methods.
type Session struct {
	ID        string    `json:"id" firestore:"id"`
	Slots     []Entry   `json:"slots" firestore:"slots"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	ExpiresAt time.Time `json:"expires_at" firestore:"expires_at"`
}

// NewSession creates a session with slotCount empty slots
func NewSession(id string, slotCount int, now time.Time, ttl time.Duration) *Session {
	if slotCount < 0 {
		slotCount = 0
	}
	return &Session{
		ID:        id,
		Slots:     make([]Entry, slotCount),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Grow appends one empty slot
func (s *Session) Grow() {
	s.Slots = append(s.Slots, Entry{})
}

// SetSlot replaces the slot at index
func (s *Session) SetSlot(index int, entry Entry) error {
	if index < 0 || index >= len(s.Slots) {
		return goerr.Wrap(ErrSlotOutOfRange, "failed to set slot",
			goerr.V("index", index),
			goerr.V("slots", len(s.Slots)),
		)
	}
	s.Slots[index] = entry
	return nil
}

// Submit overwrites slots with entries in order. Slots beyond len(entries)
// keep their values, and the session grows when there are more entries than
// slots.
func (s *Session) Submit(entries []Entry) {
	for len(s.Slots) < len(entries) {
		s.Grow()
	}
	copy(s.Slots, entries)
}

// FileSet returns the current file set derived from complete slots
func (s *Session) FileSet() FileSet {
	return NewFileSet(s.Slots)
}

// Skipped returns indexes of slots holding only a filename or only content
func (s *Session) Skipped() []int {
	var skipped []int
	for i, slot := range s.Slots {
		if slot.IsPartial() {
			skipped = append(skipped, i)
		}
	}
	return skipped
}

// IsExpired reports whether the session has passed its expiry at now
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Touch extends the expiry to now+ttl
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.Add(ttl)
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Slots = make([]Entry, len(s.Slots))
	copy(c.Slots, s.Slots)
	return &c
}
