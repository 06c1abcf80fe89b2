package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"card-advisor/internal/domain"
)

// ProfileStore guarda el perfil conversacional keyed por sesión. Toda
// mutación pasa por Apply, que serializa los merges por sesión para no
// perder actualizaciones cuando llegan turnos concurrentes.
type ProfileStore interface {
	Get(ctx context.Context, sessionID string) (domain.UserProfile, error)
	Apply(ctx context.Context, sessionID string, update domain.ProfileUpdate) (domain.UserProfile, error)
	Reset(ctx context.Context, sessionID string) error
}

var ErrInvalidSessionID = errors.New("invalid session id")

const profileTTL = 24 * time.Hour

type memoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
}

func NewMemoryProfileStore() ProfileStore {
	return &memoryProfileStore{
		profiles: make(map[string]domain.UserProfile),
	}
}

func (s *memoryProfileStore) Get(_ context.Context, sessionID string) (domain.UserProfile, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.UserProfile{}, ErrInvalidSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[sessionID]
	if !ok {
		return domain.NewUserProfile(), nil
	}
	return profile, nil
}

func (s *memoryProfileStore) Apply(_ context.Context, sessionID string, update domain.ProfileUpdate) (domain.UserProfile, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.UserProfile{}, ErrInvalidSessionID
	}
	if err := update.Validate(); err != nil {
		return domain.UserProfile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[sessionID]
	if !ok {
		profile = domain.NewUserProfile()
	}
	profile.Apply(update)
	s.profiles[sessionID] = profile
	return profile, nil
}

func (s *memoryProfileStore) Reset(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[sessionID] = domain.NewUserProfile()
	return nil
}

// redisProfileStore persiste los perfiles con TTL para que no sobrevivan a
// la sesión. El read-modify-write de Apply se serializa con un lock local
// por sesión.
type redisProfileStore struct {
	client *redis.Client
	prefix string
	locks  sync.Map // sessionID -> *sync.Mutex
}

func NewRedisProfileStore(client *redis.Client) ProfileStore {
	if client == nil {
		return nil
	}
	return &redisProfileStore{
		client: client,
		prefix: "advisor:profile:",
	}
}

func (s *redisProfileStore) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *redisProfileStore) Get(ctx context.Context, sessionID string) (domain.UserProfile, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.UserProfile{}, ErrInvalidSessionID
	}
	return s.load(ctx, sessionID)
}

func (s *redisProfileStore) Apply(ctx context.Context, sessionID string, update domain.ProfileUpdate) (domain.UserProfile, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.UserProfile{}, ErrInvalidSessionID
	}
	if err := update.Validate(); err != nil {
		return domain.UserProfile{}, err
	}

	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	profile, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	profile.Apply(update)

	payload, err := json.Marshal(profile)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if err := s.client.Set(ctx, s.prefix+sessionID, payload, profileTTL).Err(); err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

func (s *redisProfileStore) Reset(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.client.Del(ctx, s.prefix+sessionID).Err()
}

func (s *redisProfileStore) load(ctx context.Context, sessionID string) (domain.UserProfile, error) {
	payload, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewUserProfile(), nil
	}
	if err != nil {
		return domain.UserProfile{}, err
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return domain.UserProfile{}, err
	}
	if profile.SpendingHabits == nil {
		profile.SpendingHabits = map[string]float64{}
	}
	return profile, nil
}
