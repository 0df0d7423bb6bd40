// Package storage persists the whole expense collection as a single document.
//
// Every Store replaces its content wholesale on Save; callers load the full
// collection, change it in memory and save it back.
package storage

import (
	"context"
	"errors"

	"expensetracker/internal/core"
)

// ErrMalformed is wrapped by Load when the stored data cannot be decoded.
var ErrMalformed = errors.New("malformed expense data")

// Store loads and saves the full expense collection.
type Store interface {
	// Load returns the stored collection, or an empty one when nothing was stored yet.
	Load(ctx context.Context) (core.Collection, error)
	// Save replaces the stored collection with c.
	Save(ctx context.Context, c core.Collection) error
}
