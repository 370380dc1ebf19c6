package cart

import (
	"context"
	"fmt"
)

// Persister saves and loads cart values by key.
type Persister interface {
	Load(ctx context.Context, key string) (Cart, error)
	Save(ctx context.Context, key string, c Cart) error
	Delete(ctx context.Context, key string) error
}

// Store applies a mutation to the persisted cart and saves the result.
type Store struct {
	persister Persister
}

// NewStore creates a Store backed by persister.
func NewStore(persister Persister) *Store {
	return &Store{persister: persister}
}

// Get returns the cart stored under key, or an empty cart.
func (s *Store) Get(ctx context.Context, key string) (Cart, error) {
	c, err := s.persister.Load(ctx, key)
	if err != nil {
		return Cart{}, fmt.Errorf("load cart %s: %w", key, err)
	}
	return c, nil
}

// Update loads the cart, applies fn and persists the returned value.
func (s *Store) Update(ctx context.Context, key string, fn func(Cart) Cart) (Cart, error) {
	current, err := s.Get(ctx, key)
	if err != nil {
		return Cart{}, err
	}
	next := fn(current)
	if err := s.persister.Save(ctx, key, next); err != nil {
		return Cart{}, fmt.Errorf("save cart %s: %w", key, err)
	}
	return next, nil
}

// Clear removes the cart, e.g. after a successful checkout.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.persister.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete cart %s: %w", key, err)
	}
	return nil
}
