// Package session persists the issued token per device and answers validity
// checks without any upstream round trip. At most one session exists per
// device; an expired session is lazily evicted on Load.
package session

import (
	"context"
	"sync"
	"time"
)

// Session is the blob stored per device. Other components treat it as opaque.
type Session struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	UserRole    string    `json:"user_role"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store holds one session per device id.
type Store interface {
	Save(ctx context.Context, deviceID string, s Session) error
	// Load returns the stored session, or nil when none exists. A session
	// whose ExpiresAt has passed is cleared and nil is returned.
	Load(ctx context.Context, deviceID string) (*Session, error)
	// IsValid reports whether a non-expired session exists for the device.
	// Validity is purely ExpiresAt vs now.
	IsValid(ctx context.Context, deviceID string) bool
	Clear(ctx context.Context, deviceID string) error
}

// Clock is injected so tests can drive time.
type Clock func() time.Time

// MemoryStore keeps sessions in-process. Used in tests and single-node dev.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      Clock
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now Clock) *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: now}
}

func (s *MemoryStore) Save(_ context.Context, deviceID string, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[deviceID] = sess
	return nil
}

func (s *MemoryStore) Load(_ context.Context, deviceID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[deviceID]
	if !ok {
		return nil, nil
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, deviceID)
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) IsValid(ctx context.Context, deviceID string) bool {
	sess, err := s.Load(ctx, deviceID)
	return err == nil && sess != nil
}

func (s *MemoryStore) Clear(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, deviceID)
	return nil
}
