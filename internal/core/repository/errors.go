package repository

import "errors"

var (
	// ErrNotFound is returned by writes that target a missing record.
	// Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry reports a unique index violation (review slug, username).
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)
