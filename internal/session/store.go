// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"

	"github.com/redis/go-redis/v9"
)

// Store persists login sessions. One session per user; written at login,
// loaded at startup or request time to decide routing, cleared at logout.
// Load detects expiry: an expired session is deleted and reported as
// ErrSessionExpired so callers route back to login.
type Store interface {
	Save(ctx context.Context, session *models.Session) error
	Load(ctx context.Context, userID string) (*models.Session, error)
	Clear(ctx context.Context, userID string) error
}

const sessionKeyPrefix = "sentinel:session:"

// RedisStore keeps sessions in Redis as JSON values with a TTL matching the
// token expiry, so abandoned sessions age out on their own.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to connect to Redis", err)
	}
	log.Println("Successfully connected to Redis!")

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Failed to encode session", err)
	}

	// A zero ExpiresAt means the identity service reported no expiry; the
	// session is stored without a TTL and does not age out locally.
	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return utils.NewAppError(utils.ErrSessionExpired, "Refusing to save an already expired session", nil)
		}
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.UserID, data, ttl).Err(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to save session", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, utils.NewAppError(utils.ErrNotFound, "No session for user "+userID, nil)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to load session", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to decode session", err)
	}

	if session.Expired(time.Now()) {
		// Expired sessions are cleared on detection, matching the login
		// routing check.
		if err := s.Clear(ctx, userID); err != nil {
			log.Printf("Failed to clear expired session for user %s: %v", userID, err)
		}
		return nil, utils.NewAppError(utils.ErrSessionExpired, "Session expired for user "+userID, nil)
	}

	return &session, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+userID).Err(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "Failed to clear session", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is the in-process Store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

// SetClock overrides the store's clock. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) Save(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Expired(s.now()) {
		return utils.NewAppError(utils.ErrSessionExpired, "Refusing to save an already expired session", nil)
	}
	copied := *session
	s.sessions[session.UserID] = &copied
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "No session for user "+userID, nil)
	}
	if session.Expired(s.now()) {
		delete(s.sessions, userID)
		return nil, utils.NewAppError(utils.ErrSessionExpired, "Session expired for user "+userID, nil)
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}
