package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReadWriter is the part of a store the registration flow needs.
type ReadWriter interface {
	Reader
	Writer
}

// Register persists the initial trial record of a newly registered
// principal. It returns ErrRecordExists when the owner already has one.
//
// When store implements Creator the check and the write are one atomic
// step. Otherwise Register reads then saves, and two concurrent
// registrations of the same owner may both succeed with the later write
// winning.
func Register(ctx context.Context, store ReadWriter, ownerID string, now time.Time) (*Record, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidRecord)
	}

	rec := NewTrialRecord(ownerID, now)
	if c, ok := store.(Creator); ok {
		if err := c.Create(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	_, err := store.Get(ctx, ownerID)
	switch {
	case err == nil:
		return nil, ErrRecordExists
	case !errors.Is(err, ErrRecordNotFound):
		return nil, err
	}

	if err := store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
