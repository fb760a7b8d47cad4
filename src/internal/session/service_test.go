package session

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/models"
	"context"
	"sync"
	"testing"
	"time"
)

type memRecord struct {
	payload   Session
	expiresAt time.Time
}

// memStore is an in-memory Store with a controllable clock offset so
// tests can observe TTL expiry without sleeping.
type memStore struct {
	mu      sync.Mutex
	records map[string]memRecord
	index   map[string]map[string]struct{}
	offset  time.Duration
	failing bool
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[string]memRecord),
		index:   make(map[string]map[string]struct{}),
	}
}

func (s *memStore) now() time.Time {
	return time.Now().Add(s.offset)
}

func (s *memStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += d
}

func (s *memStore) Put(ctx context.Context, id string, record *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return models.ErrSessionStoreUnavailable
	}
	s.records[id] = memRecord{payload: *record, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memStore) Rewrite(ctx context.Context, id string, record *Session, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return false, models.ErrSessionStoreUnavailable
	}
	rec, ok := s.records[id]
	if !ok || s.now().After(rec.expiresAt) {
		delete(s.records, id)
		return false, nil
	}
	s.records[id] = memRecord{payload: *record, expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, models.ErrSessionStoreUnavailable
	}
	rec, ok := s.records[id]
	if !ok || s.now().After(rec.expiresAt) {
		delete(s.records, id)
		return nil, nil
	}
	payload := rec.payload
	return &payload, nil
}

func (s *memStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return models.ErrSessionStoreUnavailable
	}
	delete(s.records, id)
	return nil
}

func (s *memStore) IndexAdd(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return models.ErrSessionStoreUnavailable
	}
	if s.index[userID] == nil {
		s.index[userID] = make(map[string]struct{})
	}
	s.index[userID][id] = struct{}{}
	return nil
}

func (s *memStore) IndexRemove(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return models.ErrSessionStoreUnavailable
	}
	delete(s.index[userID], id)
	return nil
}

func (s *memStore) IndexMembers(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, models.ErrSessionStoreUnavailable
	}
	ids := make([]string, 0, len(s.index[userID]))
	for id := range s.index[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) IndexContains(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return false, models.ErrSessionStoreUnavailable
	}
	_, ok := s.index[userID][id]
	return ok, nil
}

func (s *memStore) RemoveIndex(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return models.ErrSessionStoreUnavailable
	}
	delete(s.index, userID)
	return nil
}

type staticParser struct{}

func (staticParser) Parse(userAgent string) Device {
	return Device{Browser: "Chrome", OS: "Linux", Class: "desktop"}
}

type staticLocator struct{}

func (staticLocator) Lookup(ctx context.Context, ip string) Location {
	return Location{City: "Unknown", Country: "Unknown"}
}

func newTestService(store Store) Service {
	cfg := &config.Configuration{Session: config.SessionConfig{TTLHours: 24}}
	return NewSessionService(store, staticParser{}, staticLocator{}, cfg)
}

func TestCreateSessionThenGet(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if record.ID == "" {
		t.Fatal("session id should not be empty")
	}
	if !record.CreatedAt.Equal(record.LastSeenAt) {
		t.Errorf("created_at %v should equal last_seen %v", record.CreatedAt, record.LastSeenAt)
	}

	got, err := svc.GetSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Fatal("session should exist")
	}
	if got.UserID != "u1" || got.Email != "jane@example.com" || got.IP != "1.2.3.4" {
		t.Errorf("unexpected record: %+v", got)
	}

	owned, err := store.IndexContains(ctx, "u1", record.ID)
	if err != nil {
		t.Fatalf("IndexContains: %v", err)
	}
	if !owned {
		t.Error("session should be listed in the user's index")
	}
}

func TestConcurrentLoginsAreIndependent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	results := make(chan *Session, 2)
	errs := make(chan error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
			results <- record
			errs <- err
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent CreateSession: %v", err)
		}
	}

	seen := make(map[string]bool)
	for record := range results {
		if seen[record.ID] {
			t.Error("concurrent logins must produce distinct sessions")
		}
		seen[record.ID] = true
	}

	records, err := svc.ListUserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserSessions: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(records))
	}
}

func TestTouchSessionSlidesExpiry(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	store.advance(23 * time.Hour)

	touched, err := svc.TouchSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	if touched == nil {
		t.Fatal("session should still be alive before TTL")
	}
	if !touched.LastSeenAt.After(record.LastSeenAt) {
		t.Error("touch should advance last_seen")
	}

	// The rewrite renewed the TTL, so another 23h keeps it alive.
	store.advance(23 * time.Hour)
	got, err := svc.GetSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Fatal("touched session should have a renewed TTL")
	}

	// Without another touch, the renewed window runs out.
	store.advance(25 * time.Hour)
	got, err = svc.GetSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Error("expired session should read as absent")
	}

	// Touching an expired session is a no-op, not an error.
	touched, err = svc.TouchSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("TouchSession on expired: %v", err)
	}
	if touched != nil {
		t.Error("touching an expired session should return absent")
	}
}

// raceDestroyStore lands a Remove between the touch's read and its
// rewrite, like a logout on another connection.
type raceDestroyStore struct {
	*memStore
}

func (s *raceDestroyStore) Rewrite(ctx context.Context, id string, record *Session, ttl time.Duration) (bool, error) {
	if err := s.memStore.Remove(ctx, id); err != nil {
		return false, err
	}
	return s.memStore.Rewrite(ctx, id, record, ttl)
}

func TestTouchCannotResurrectDestroyedSession(t *testing.T) {
	store := &raceDestroyStore{memStore: newMemStore()}
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	touched, err := svc.TouchSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	if touched != nil {
		t.Error("a touch losing the race to a destroy must report the session absent")
	}

	got, err := svc.GetSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Errorf("destroyed session must stay gone after a racing touch, got %+v", got)
	}
}

func TestGetSessionDoesNotSlideExpiry(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	store.advance(23 * time.Hour)
	if got, _ := svc.GetSession(ctx, record.ID); got == nil {
		t.Fatal("session should still be alive")
	}

	// A read-only check must not have renewed anything.
	store.advance(2 * time.Hour)
	got, err := svc.GetSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Error("read-through must not extend a session's life")
	}
}

func TestDestroySessionIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := svc.DestroySession(ctx, record.ID, "u1"); err != nil {
		t.Fatalf("DestroySession: %v", err)
	}

	got, err := svc.GetSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Error("destroyed session should read as absent")
	}

	if err := svc.DestroySession(ctx, record.ID, "u1"); err != nil {
		t.Errorf("destroying an already-gone session should be a no-op, got %v", err)
	}
}

func TestListUserSessionsAfterDestroy(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		ids = append(ids, record.ID)
	}

	if err := svc.DestroySession(ctx, ids[1], "u1"); err != nil {
		t.Fatalf("DestroySession: %v", err)
	}

	records, err := svc.ListUserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserSessions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(records))
	}
	for _, record := range records {
		if record.ID == ids[1] {
			t.Error("destroyed session must not appear in the list")
		}
	}
}

func TestListUserSessionsPrunesExpired(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store).(*sessionService)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	store.advance(25 * time.Hour)

	records, err := svc.ListUserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserSessions: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expired sessions must be dropped, got %d", len(records))
	}

	// The stale index entry was pruned on discovery.
	owned, err := store.IndexContains(ctx, "u1", record.ID)
	if err != nil {
		t.Fatalf("IndexContains: %v", err)
	}
	if owned {
		t.Error("expired session id should have been pruned from the index")
	}
}

func TestResolveIndexedStates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store).(*sessionService)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	state, got, err := svc.resolveIndexed(ctx, "u1", record.ID)
	if err != nil || state != resolvePresent || got == nil {
		t.Fatalf("expected present, got state=%v record=%v err=%v", state, got, err)
	}

	store.advance(25 * time.Hour)

	state, got, err = svc.resolveIndexed(ctx, "u1", record.ID)
	if err != nil || state != resolvePruned || got != nil {
		t.Fatalf("expected pruned, got state=%v record=%v err=%v", state, got, err)
	}

	// Second resolve finds nothing left to prune.
	state, got, err = svc.resolveIndexed(ctx, "u1", record.ID)
	if err != nil || state != resolvePruned || got != nil {
		t.Fatalf("re-resolving a gone id should still report absence, got state=%v record=%v err=%v", state, got, err)
	}
}

func TestDestroyUserSessionOwnershipCheck(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	victim, err := svc.CreateSession(ctx, "victim", "victim@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	ok, err := svc.DestroyUserSession(ctx, "attacker", victim.ID)
	if err != nil {
		t.Fatalf("DestroyUserSession: %v", err)
	}
	if ok {
		t.Fatal("cross-user revocation must be refused")
	}

	got, err := svc.GetSession(ctx, victim.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Error("victim's session must stay intact")
	}

	ok, err = svc.DestroyUserSession(ctx, "victim", victim.ID)
	if err != nil {
		t.Fatalf("DestroyUserSession: %v", err)
	}
	if !ok {
		t.Error("owner must be able to revoke their own session")
	}
}

func TestDestroyAllSessions(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0"); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	other, err := svc.CreateSession(ctx, "u2", "other@example.com", "5.6.7.8", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := svc.DestroyAllSessions(ctx, "u1"); err != nil {
		t.Fatalf("DestroyAllSessions: %v", err)
	}

	records, err := svc.ListUserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserSessions: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no sessions after revoke-all, got %d", len(records))
	}

	// Another user's sessions are untouched.
	got, err := svc.GetSession(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Error("revoke-all must be scoped to one user")
	}
}

func TestStoreOutageIsNotAbsence(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	record, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	store.failing = true

	if _, err := svc.GetSession(ctx, record.ID); err != models.ErrSessionStoreUnavailable {
		t.Errorf("expected ErrSessionStoreUnavailable, got %v", err)
	}
	if _, err := svc.TouchSession(ctx, record.ID); err != models.ErrSessionStoreUnavailable {
		t.Errorf("expected ErrSessionStoreUnavailable, got %v", err)
	}
	if _, err := svc.ListUserSessions(ctx, "u1"); err != models.ErrSessionStoreUnavailable {
		t.Errorf("expected ErrSessionStoreUnavailable, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, "u1", "jane@example.com", "1.2.3.4", "Mozilla/5.0"); err != models.ErrSessionStoreUnavailable {
		t.Errorf("expected ErrSessionStoreUnavailable, got %v", err)
	}
}
