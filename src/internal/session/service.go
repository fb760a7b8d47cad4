package session

import (
	"casehub-auth-svc/src/internal/config"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service orchestrates session lifecycle on top of the Store. All
// coordinating state lives in the store; the service holds no locks
// across store calls.
type Service interface {
	CreateSession(ctx context.Context, userID, email, ip, userAgent string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	TouchSession(ctx context.Context, id string) (*Session, error)
	DestroySession(ctx context.Context, id, userID string) error
	ListUserSessions(ctx context.Context, userID string) ([]*Session, error)
	DestroyUserSession(ctx context.Context, userID, id string) (bool, error)
	DestroyAllSessions(ctx context.Context, userID string) error
}

type sessionService struct {
	store     Store
	devices   DeviceParser
	locations LocationProvider
	ttl       time.Duration
}

func NewSessionService(store Store, devices DeviceParser, locations LocationProvider, cfg *config.Configuration) Service {
	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionService{
		store:     store,
		devices:   devices,
		locations: locations,
		ttl:       ttl,
	}
}

// CreateSession issues a fresh session for the user. Concurrent logins by
// the same user each get their own session; no cap is enforced here, the
// boundary can count ListUserSessions and apply policy if it needs one.
func (s *sessionService) CreateSession(ctx context.Context, userID, email, ip, userAgent string) (*Session, error) {
	now := time.Now().UTC()

	record := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Email:      email,
		IP:         ip,
		Device:     s.devices.Parse(userAgent),
		Location:   s.locations.Lookup(ctx, ip),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := s.store.Put(ctx, record.ID, record, s.ttl); err != nil {
		return nil, err
	}

	if err := s.store.IndexAdd(ctx, userID, record.ID); err != nil {
		// Roll the record back rather than leave it unindexed.
		if rmErr := s.store.Remove(ctx, record.ID); rmErr != nil {
			logrus.WithError(rmErr).WithField("session_id", record.ID).Warn("Failed to roll back unindexed session")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": record.ID,
	}).Debug("Session created")

	return record, nil
}

// GetSession is a pure read-through. It does not refresh the TTL or
// last-seen, so read-only checks never extend a session's life.
func (s *sessionService) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// TouchSession refreshes last-seen and rewrites the record with a renewed
// TTL. The rewrite is conditional on the record still existing, so a
// destroy landing between the read and the rewrite wins: the session
// stays gone and the touch reports it as absent. A session that no
// longer exists comes back nil, nil.
func (s *sessionService) TouchSession(ctx context.Context, id string) (*Session, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil || record == nil {
		return nil, err
	}

	record.LastSeenAt = time.Now().UTC()
	ok, err := s.store.Rewrite(ctx, id, record, s.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return record, nil
}

// DestroySession removes the record and its index entry. Destroying an
// already-gone session succeeds silently.
func (s *sessionService) DestroySession(ctx context.Context, id, userID string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	return s.store.IndexRemove(ctx, userID, id)
}

type resolveState int

const (
	resolvePresent resolveState = iota
	resolvePruned
	resolveGone
)

// resolveIndexed fetches one indexed session. When the record has expired
// underneath its index entry, the entry is pruned on the spot; a prune
// failure is logged and tolerated, the index stays eventually consistent.
func (s *sessionService) resolveIndexed(ctx context.Context, userID, id string) (resolveState, *Session, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return resolveGone, nil, err
	}
	if record != nil {
		return resolvePresent, record, nil
	}

	if err := s.store.IndexRemove(ctx, userID, id); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": id,
		}).Warn("Failed to prune expired session from index")
		return resolveGone, nil, nil
	}
	return resolvePruned, nil, nil
}

// ListUserSessions resolves every id in the user's index. Expired entries
// are dropped from the result and lazily pruned from the index.
func (s *sessionService) ListUserSessions(ctx context.Context, userID string) ([]*Session, error) {
	ids, err := s.store.IndexMembers(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := make([]*Session, 0, len(ids))
	for _, id := range ids {
		state, record, err := s.resolveIndexed(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if state == resolvePresent {
			records = append(records, record)
		}
	}
	return records, nil
}

// DestroyUserSession revokes one session only if it belongs to the given
// user. Returns false when it does not, so a guessed session id cannot be
// revoked across users.
func (s *sessionService) DestroyUserSession(ctx context.Context, userID, id string) (bool, error) {
	owned, err := s.store.IndexContains(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if !owned {
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": id,
		}).Warn("Refused to revoke session not owned by user")
		return false, nil
	}

	if err := s.DestroySession(ctx, id, userID); err != nil {
		return false, err
	}
	return true, nil
}

// DestroyAllSessions revokes every session for the user. A session it has
// removed never reappears in a concurrent list. A login racing this call
// may survive it: the store offers per-key atomicity only, so "log out
// everywhere" stays best-effort. Callers that need a hard fence disable
// the account first and let the next request bounce.
func (s *sessionService) DestroyAllSessions(ctx context.Context, userID string) error {
	ids, err := s.store.IndexMembers(ctx, userID)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := s.store.Remove(ctx, id); err != nil {
			return err
		}
	}

	if err := s.store.RemoveIndex(ctx, userID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(ids),
	}).Info("All sessions revoked for user")

	return nil
}
