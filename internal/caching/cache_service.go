package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"critterlog/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Entitlement caching
	GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	SetSubscription(ctx context.Context, subscription *models.Subscription, ttl time.Duration) error

	// Animal list caching (dashboard view)
	GetAnimalList(ctx context.Context, userID uuid.UUID) ([]*models.Animal, error)
	SetAnimalList(ctx context.Context, userID uuid.UUID, animals []*models.Animal, ttl time.Duration) error
	DeleteAnimalList(ctx context.Context, userID uuid.UUID) error

	// Cache invalidation: drops every view derived from the user's plan
	// status. Called synchronously after a reconciliation commits.
	InvalidateUserCache(ctx context.Context, userID uuid.UUID) error

	// SweepSubscriptionCache drops every cached entitlement so the next read
	// per user comes from the store. Returns the number of keys removed.
	SweepSubscriptionCache(ctx context.Context) (int, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port URLs as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	key := fmt.Sprintf("critterlog:subscription:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var subscription models.Subscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *redisCacheService) SetSubscription(ctx context.Context, subscription *models.Subscription, ttl time.Duration) error {
	key := fmt.Sprintf("critterlog:subscription:%s", subscription.UserID.String())
	data, err := json.Marshal(subscription)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetAnimalList(ctx context.Context, userID uuid.UUID) ([]*models.Animal, error) {
	key := fmt.Sprintf("critterlog:animals:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var animals []*models.Animal
	if err := json.Unmarshal(data, &animals); err != nil {
		return nil, err
	}
	return animals, nil
}

func (r *redisCacheService) SetAnimalList(ctx context.Context, userID uuid.UUID, animals []*models.Animal, ttl time.Duration) error {
	key := fmt.Sprintf("critterlog:animals:%s", userID.String())
	data, err := json.Marshal(animals)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteAnimalList(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("critterlog:animals:%s", userID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) InvalidateUserCache(ctx context.Context, userID uuid.UUID) error {
	pattern := fmt.Sprintf("critterlog:*:%s*", userID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) SweepSubscriptionCache(ctx context.Context) (int, error) {
	keys, err := r.client.Keys(ctx, "critterlog:subscription:*").Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
