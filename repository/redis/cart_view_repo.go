package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/repository"
)

type cartViewRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewCartViewRepository creates a Redis-backed cart view repository.
func NewCartViewRepository(client *redislib.Client, ttl time.Duration) repository.CartViewRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &cartViewRepository{
		client: client,
		prefix: "cart_view:",
		ttl:    ttl,
	}
}

func (r *cartViewRepository) Get(ctx context.Context, cartID string) (*repository.CartView, error) {
	result, err := r.client.Get(ctx, r.key(cartID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrCartViewNotFound
		}
		return nil, err
	}

	var view repository.CartView
	if err := json.Unmarshal([]byte(result), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *cartViewRepository) Save(ctx context.Context, view *repository.CartView) error {
	if view == nil || view.CartID == "" {
		return domain.ErrInvalidPayload
	}

	if view.UpdatedAt.IsZero() {
		view.UpdatedAt = time.Now()
	}

	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.key(view.CartID), payload, r.ttl).Err()
}

func (r *cartViewRepository) Delete(ctx context.Context, cartID string) error {
	return r.client.Del(ctx, r.key(cartID)).Err()
}

func (r *cartViewRepository) key(cartID string) string {
	return fmt.Sprintf("%s%s", r.prefix, cartID)
}
