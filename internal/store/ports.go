package store

import (
	"context"
	"fmt"

	"milkbill/internal/core"
)

// Ports for the bill store.
type (
	BillLister interface {
		// List returns every bill in store order.
		List(ctx context.Context) ([]core.Bill, error)
	}

	// BillSearcher filters by name or mobile. Matching is store-defined.
	BillSearcher interface {
		Search(ctx context.Context, query string) ([]core.Bill, error)
	}

	BillCreator interface {
		// Create persists b and returns the stored record with its id.
		Create(ctx context.Context, b core.Bill) (core.Bill, error)
	}

	// BillDeleter removes a bill. Deleting an unknown id is not an error.
	BillDeleter interface {
		Delete(ctx context.Context, id string) error
	}

	Store interface {
		BillLister
		BillSearcher
		BillCreator
		BillDeleter
	}
)

// StoreError is a non-2xx answer from the store. Message holds the store's
// own error text when it sent one.
type StoreError struct {
	Op      string
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("store %s: status %d", e.Op, e.Status)
}
