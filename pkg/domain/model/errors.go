package model

import "errors"

var (
	// ErrSessionNotFound is returned when a session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrSlotOutOfRange is returned when a slot index does not address an existing slot
	ErrSlotOutOfRange = errors.New("slot index out of range")
)
