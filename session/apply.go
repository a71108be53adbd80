package session

import (
	"context"
	"errors"
	"fmt"
)

// maxApplyAttempts bounds how often Apply retries after a version conflict.
const maxApplyAttempts = 3

// MutateFunc changes session state in place.
type MutateFunc func(data *SessionData)

// Apply loads the session with the given id, applies fn and persists the
// result. A missing session (or an empty id) is created with a fresh ID.
// When another request updated the session concurrently, the latest version
// is reloaded and fn is applied again, so concurrent mutations of different
// fields are not lost.
func Apply(ctx context.Context, store Store, id string, fn MutateFunc) (*SessionData, error) {
	var lastErr error

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		var current *SessionData
		if id != "" {
			stored, err := store.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("session: load: %w", err)
			}
			current = stored
		}

		if current == nil {
			newID, err := NewID()
			if err != nil {
				return nil, err
			}
			data := &SessionData{ID: newID}
			fn(data)
			if err := store.Create(ctx, data); err != nil {
				return nil, fmt.Errorf("session: create: %w", err)
			}
			return data, nil
		}

		data := current.Clone()
		fn(data)

		err := store.Update(ctx, data)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, ErrNotFound) {
			// Expired between Get and Update; start over with a new session.
			id = ""
			lastErr = err
			continue
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, fmt.Errorf("session: update: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("session: giving up after %d attempts: %w", maxApplyAttempts, lastErr)
}
