package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brianfeister/rawelegancecreations/cart"
	"github.com/brianfeister/rawelegancecreations/models"

	"github.com/redis/go-redis/v9"
)

// CartRepository persists carts in Redis as the same JSON array of products
// the storefront keeps in local storage.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CartRepository) getKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

// Load returns the stored cart or an empty one when none exists.
func (r *CartRepository) Load(ctx context.Context, cartID string) (cart.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Cart{}, nil
	}
	if err != nil {
		return cart.Cart{}, err
	}

	var products []models.CartProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return cart.Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return cart.New(products), nil
}

// Save stores the cart and refreshes its TTL.
func (r *CartRepository) Save(ctx context.Context, cartID string, c cart.Cart) error {
	products := c.Products
	if products == nil {
		products = []models.CartProduct{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(cartID), data, r.ttl).Err()
}

func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	return r.client.Del(ctx, r.getKey(cartID)).Err()
}

// Ping checks the Redis connection.
func (r *CartRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
