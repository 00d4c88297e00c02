package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	vinylredis "github.com/virtualvinyl/vinyl-server-go/internal/redis"
)

const maxUpdateRetries = 5

// RedisSessionRepository stores each session as a JSON value with an idle
// TTL that is refreshed on every read and write. Tokens are stored as is.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl}
}

func (r *RedisSessionRepository) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:        params.ID,
		Provider:  params.Provider,
		State:     params.State,
		Selection: []model.Track{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, vinylredis.SessionKey(params.ID), data, r.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionExists
	}

	return session, nil
}

func (r *RedisSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	data, err := r.client.GetEx(ctx, vinylredis.SessionKey(id), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(data)
}

func (r *RedisSessionRepository) Update(ctx context.Context, id string, fn SessionMutator) (*model.Session, error) {
	key := vinylredis.SessionKey(id)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var result *model.Session

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return err
			}

			draft, err := decodeSession(data)
			if err != nil {
				return err
			}
			if err := fn(draft); err != nil {
				return err
			}
			draft.ID = id
			draft.UpdatedAt = time.Now()

			encoded, err := json.Marshal(draft)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, r.ttl)
				return nil
			})
			if err == nil {
				result = draft
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			log.Debug().Int("attempt", attempt+1).Msg("session update conflict, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, ErrConflict
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, vinylredis.SessionKey(id)).Err()
}

// DeleteExpired is a no-op: redis expires session keys itself.
func (r *RedisSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func decodeSession(data []byte) (*model.Session, error) {
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}
