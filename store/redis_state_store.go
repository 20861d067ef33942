package store

import (
	"fmt"
	"time"

	"github.com/Essorvi/tgbeta-v8/types"
)

// RedisStateStore holds the per-user input-mode record. One key per
// user, so Set is a single atomic replace and a reader never observes
// two live records or a half-applied swap.
type RedisStateStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisStateStore(redisClient *RedisClient, ttlHours int) *RedisStateStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStateStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisStateStore) key(userID int64) string {
	return s.client.key("user_state", fmt.Sprintf("%d", userID))
}

func (s *RedisStateStore) Set(userID int64, mode types.SessionMode, data map[string]interface{}) error {
	state := types.SessionState{
		UserID:    userID,
		Mode:      mode,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	return s.client.Set(s.key(userID), state, s.ttl)
}

func (s *RedisStateStore) Get(userID int64) (*types.SessionState, error) {
	var state types.SessionState
	if err := s.client.Get(s.key(userID), &state); err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (s *RedisStateStore) Clear(userID int64) error {
	return s.client.Del(s.key(userID))
}
