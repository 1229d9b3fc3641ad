// Package drafts holds outer registrations between the form and payment upload steps.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/symposium-registry/internal/models"
)

const keyPrefix = "draft:outer:"

var ErrNotFound = errors.New("draft not found or expired")

// Draft is a validated outer form waiting for its payment proof
type Draft struct {
	Token     string           `json:"token"`
	Form      models.OuterForm `json:"form"`
	Amount    int              `json:"amount"`
	CreatedAt time.Time        `json:"created_at"`
}

// RedisStore keeps drafts as JSON values with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, address, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func key(token string) string {
	return keyPrefix + token
}

// Save stores a new draft under a fresh token and returns it
func (s *RedisStore) Save(ctx context.Context, form models.OuterForm, amount int) (*Draft, error) {
	d := &Draft{
		Token:     uuid.New().String(),
		Form:      form,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}

	if err := s.client.Set(ctx, key(d.Token), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	slog.Debug("draft saved", "token", d.Token, "ttl", s.ttl)
	return d, nil
}

// Get loads a draft; expired and unknown tokens return ErrNotFound
func (s *RedisStore) Get(ctx context.Context, token string) (*Draft, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrNotFound
	}

	data, err := s.client.Get(ctx, key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &d, nil
}

// Delete removes a draft once its registration is stored
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Count returns the number of live drafts
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var cursor uint64
	var n int

	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan drafts: %w", err)
		}
		n += len(keys)

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return n, nil
}

// Ping checks Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
