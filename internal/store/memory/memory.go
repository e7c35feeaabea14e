package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"milkbill/internal/core"
	"milkbill/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Bill
}

// New returns a store holding seed in the given order. Seed bills without an
// id get one.
func New(seed []core.Bill) *Store {
	s := &Store{}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.items = append(s.items, b)
	}
	return s
}

// NewFromFile seeds the store from a JSON array of bills. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []core.Bill
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(seed), nil
}

func (s *Store) List(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Bill(nil), s.items...), nil
}

// Search matches a case-insensitive substring of the name or a substring of
// the mobile number.
func (s *Store) Search(_ context.Context, query string) ([]core.Bill, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Bill{}
	for _, b := range s.items {
		if strings.Contains(strings.ToLower(b.Name), q) || strings.Contains(b.Mobile, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Create stores b under a fresh id.
func (s *Store) Create(_ context.Context, b core.Bill) (core.Bill, error) {
	b.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, b)
	return b, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.items {
		if b.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len returns the number of stored bills.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
