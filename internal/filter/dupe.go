package filter

import (
	"context"
	"fmt"
)

// DupStore is the slice of the persistence layer the duplicate check needs.
type DupStore interface {
	HasTitleOrLink(ctx context.Context, title, link string) (bool, error)
}

// DupChecker asks the store whether an equivalent row already exists, by
// exact link or case-insensitive title. Title matching matters because the
// same event is routinely republished under a different URL with an
// identical headline.
type DupChecker struct {
	store DupStore
}

func NewDupChecker(store DupStore) *DupChecker {
	return &DupChecker{store: store}
}

// IsDuplicate reports whether the candidate was already persisted. A store
// error is returned as an error, not swallowed: if the store cannot confirm
// the item is new, processing it would risk re-billing model calls for
// something we may already have.
func (d *DupChecker) IsDuplicate(ctx context.Context, title, link string) (bool, error) {
	exists, err := d.store.HasTitleOrLink(ctx, title, link)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return exists, nil
}
