// Package options is a small named-record store. Each option holds one JSON
// document that is always read and replaced as a whole.
package options

import (
	"context"
	"errors"

	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
)

// Store reads and writes named options.
type Store interface {
	// Get returns the raw value, or pkgerrors.ErrOptionNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Set creates or fully replaces the value.
	Set(ctx context.Context, name string, value []byte) error
	// Add creates the option only if it does not exist yet; otherwise it
	// returns pkgerrors.ErrOptionExists and leaves the stored value alone.
	Add(ctx context.Context, name string, value []byte, autoload bool) error
	// Delete removes the option. Deleting a missing option is not an error.
	Delete(ctx context.Context, name string) error
}

// Activate creates the named option with a null value and autoload disabled.
// Running it again keeps whatever is already stored.
func Activate(ctx context.Context, store Store, name string) error {
	err := store.Add(ctx, name, []byte("null"), false)
	if err != nil && !errors.Is(err, pkgerrors.ErrOptionExists) {
		return pkgerrors.Wrap(err, "activate option "+name)
	}
	return nil
}
