package session

import (
	"casehub-auth-svc/src/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	sessionKeyPattern = "session:%s"
	indexKeyPattern   = "user_sessions:%s"
)

// Store is the key-value abstraction behind the session service. Records
// under session:{id} carry a TTL; the per-user index under
// user_sessions:{userId} does not and is pruned lazily.
//
// A nil record from Get means absent: expired and never-created are
// indistinguishable on purpose. Connectivity failures surface as
// models.ErrSessionStoreUnavailable and are never reported as absence.
type Store interface {
	Put(ctx context.Context, id string, record *Session, ttl time.Duration) error
	Rewrite(ctx context.Context, id string, record *Session, ttl time.Duration) (bool, error)
	Get(ctx context.Context, id string) (*Session, error)
	Remove(ctx context.Context, id string) error
	IndexAdd(ctx context.Context, userID, id string) error
	IndexRemove(ctx context.Context, userID, id string) error
	IndexMembers(ctx context.Context, userID string) ([]string, error)
	IndexContains(ctx context.Context, userID, id string) (bool, error)
	RemoveIndex(ctx context.Context, userID string) error
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Put(ctx context.Context, id string, record *Session, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to marshal session")
		return models.ErrSessionEncoding
	}

	key := fmt.Sprintf(sessionKeyPattern, id)
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to write session")
		return models.ErrSessionStoreUnavailable
	}
	return nil
}

// Rewrite replaces an existing record and renews its TTL in one atomic
// step. SET with the XX flag never creates the key, so a rewrite cannot
// bring back a record a concurrent Remove has already deleted. Returns
// false when the record was gone.
func (s *redisStore) Rewrite(ctx context.Context, id string, record *Session, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to marshal session")
		return false, models.ErrSessionEncoding
	}

	key := fmt.Sprintf(sessionKeyPattern, id)
	ok, err := s.client.SetXX(ctx, key, data, ttl).Result()
	if err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to rewrite session")
		return false, models.ErrSessionStoreUnavailable
	}
	return ok, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	key := fmt.Sprintf(sessionKeyPattern, id)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("session_id", id).Error("Failed to read session")
		return nil, models.ErrSessionStoreUnavailable
	}

	var record Session
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to unmarshal session")
		return nil, models.ErrSessionEncoding
	}
	return &record, nil
}

func (s *redisStore) Remove(ctx context.Context, id string) error {
	key := fmt.Sprintf(sessionKeyPattern, id)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("Failed to delete session")
		return models.ErrSessionStoreUnavailable
	}
	return nil
}

func (s *redisStore) IndexAdd(ctx context.Context, userID, id string) error {
	key := fmt.Sprintf(indexKeyPattern, userID)
	if err := s.client.SAdd(ctx, key, id).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to add session to index")
		return models.ErrSessionStoreUnavailable
	}
	return nil
}

func (s *redisStore) IndexRemove(ctx context.Context, userID, id string) error {
	key := fmt.Sprintf(indexKeyPattern, userID)
	if err := s.client.SRem(ctx, key, id).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to remove session from index")
		return models.ErrSessionStoreUnavailable
	}
	return nil
}

func (s *redisStore) IndexMembers(ctx context.Context, userID string) ([]string, error) {
	key := fmt.Sprintf(indexKeyPattern, userID)
	ids, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to read session index")
		return nil, models.ErrSessionStoreUnavailable
	}
	return ids, nil
}

func (s *redisStore) IndexContains(ctx context.Context, userID, id string) (bool, error) {
	key := fmt.Sprintf(indexKeyPattern, userID)
	ok, err := s.client.SIsMember(ctx, key, id).Result()
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to check session index")
		return false, models.ErrSessionStoreUnavailable
	}
	return ok, nil
}

func (s *redisStore) RemoveIndex(ctx context.Context, userID string) error {
	key := fmt.Sprintf(indexKeyPattern, userID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to drop session index")
		return models.ErrSessionStoreUnavailable
	}
	return nil
}
