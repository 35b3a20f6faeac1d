package store

import "errors"

// Sentinel errors shared by the generic entity layer.
var (
	// ErrNotFound is returned when an entity cannot be found.
	ErrNotFound = errors.New("entity not found")
	// ErrAlreadyExists is returned when creating an entity that already exists.
	ErrAlreadyExists = errors.New("entity already exists")
)

// Typed sentinels for the hand-rolled record types.
var (
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when attempting to create a user with an existing ID.
	ErrUserExists = errors.New("user already exists")
	// ErrEmailExists is returned when attempting to create a user with an email that's already in use.
	ErrEmailExists = errors.New("email already in use")
	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when attempting to use an expired session.
	ErrSessionExpired = errors.New("session expired")
	// ErrSoundNotFound is returned when a tracked sound cannot be found by ID.
	ErrSoundNotFound = errors.New("sound not found")
	// ErrSoundURLExists is returned when a user already tracks the given URL.
	ErrSoundURLExists = errors.New("sound URL already tracked")
)
