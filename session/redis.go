package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticketsync/entity"
)

const redisKeyPrefix = "ticketsync:session:"

// RedisStore keeps sessions as JSON values that expire after ttl, so a
// portal restart does not log everybody out.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) RedisStore {
	if rdb == nil {
		panic("nil redis client")
	}

	return RedisStore{rdb: rdb, ttl: ttl}
}

func (s RedisStore) Save(ctx context.Context, sessionID string, session entity.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err := s.rdb.Set(ctx, redisKeyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("could not store session: %w", err)
	}

	return nil
}

func (s RedisStore) Load(ctx context.Context, sessionID string) (entity.Session, error) {
	payload, err := s.rdb.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.Session{}, entity.ErrNoSession
	}
	if err != nil {
		return entity.Session{}, fmt.Errorf("could not get session: %w", err)
	}

	var session entity.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return entity.Session{}, fmt.Errorf("could not unmarshal session: %w", err)
	}

	return session, nil
}

func (s RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}

	return nil
}
