package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const guestCartKeyPrefix = "guest_cart:"

// GuestCartRepository stores anonymous carts in Redis with a sliding TTL.
type GuestCartRepository interface {
	Save(ctx context.Context, guestID string, items []model.CartLineItem) error
	Load(ctx context.Context, guestID string) ([]model.CartLineItem, error)
	Delete(ctx context.Context, guestID string) error
}

type guestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuestCartRepository(client *redis.Client, ttl time.Duration) GuestCartRepository {
	return &guestCartRepository{client: client, ttl: ttl}
}

func guestCartKey(guestID string) string {
	return guestCartKeyPrefix + guestID
}

func (r *guestCartRepository) Save(ctx context.Context, guestID string, items []model.CartLineItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}

	if err := r.client.Set(ctx, guestCartKey(guestID), payload, r.ttl).Err(); err != nil {
		logger.Error("Failed to save guest cart", err, map[string]interface{}{
			"guest_id": guestID,
		})
		return err
	}

	logger.Debug("Guest cart saved", map[string]interface{}{
		"guest_id": guestID,
		"items":    len(items),
	})
	return nil
}

// Load returns nil without error when nothing is stored for guestID.
func (r *guestCartRepository) Load(ctx context.Context, guestID string) ([]model.CartLineItem, error) {
	raw, err := r.client.Get(ctx, guestCartKey(guestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to load guest cart", err, map[string]interface{}{
			"guest_id": guestID,
		})
		return nil, err
	}

	var items []model.CartLineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return items, nil
}

func (r *guestCartRepository) Delete(ctx context.Context, guestID string) error {
	if err := r.client.Del(ctx, guestCartKey(guestID)).Err(); err != nil {
		logger.Error("Failed to delete guest cart", err, map[string]interface{}{
			"guest_id": guestID,
		})
		return err
	}
	return nil
}
