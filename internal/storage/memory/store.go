// Package memory is the in-process storage driver. Every transaction runs
// under one mutex against a copy of the state; commit swaps the copy in,
// any error or panic discards it.
package memory

import (
	"context"
	"maps"
	"sync"

	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/lending"
	"LIBRA-backend/internal/platform/auth"
)

type sequences struct {
	author, category, title, request, record int64
}

type state struct {
	accounts   map[string]auth.Account
	authors    map[int64]catalog.Author
	categories map[int64]catalog.Category
	titles     map[int64]catalog.Title
	requests   map[int64]lending.BorrowRequest
	records    map[int64]lending.BorrowRecord
	seq        sequences
}

func newState() state {
	return state{
		accounts:   map[string]auth.Account{},
		authors:    map[int64]catalog.Author{},
		categories: map[int64]catalog.Category{},
		titles:     map[int64]catalog.Title{},
		requests:   map[int64]lending.BorrowRequest{},
		records:    map[int64]lending.BorrowRecord{},
	}
}

// 値型のみなので maps.Clone で十分
func (s state) clone() state {
	return state{
		accounts:   maps.Clone(s.accounts),
		authors:    maps.Clone(s.authors),
		categories: maps.Clone(s.categories),
		titles:     maps.Clone(s.titles),
		requests:   maps.Clone(s.requests),
		records:    maps.Clone(s.records),
		seq:        s.seq,
	}
}

type Store struct {
	mu sync.RWMutex
	st state
}

func New() *Store { return &Store{st: newState()} }

func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.st.clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.st = next
	return nil
}

func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.st)
}

// Lending, Inventory, Catalog and Accounts expose the shared state through each feature's store interface.
func (s *Store) Lending() lending.Store { return lendingStore{s} }
func (s *Store) Inventory() inventory.Store { return inventoryStore{s} }
func (s *Store) Catalog() catalog.Store { return catalogStore{s} }
func (s *Store) Accounts() auth.AccountStore { return accountStore{s} }
