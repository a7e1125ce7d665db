package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process implementation of [UserStore],
// [LoginAttemptStore], and [TrustedDeviceStore]. It backs tests and
// single-node deployments; production setups plug in their own database
// stores behind the same interfaces.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*User
	attempts []*LoginAttempt
	devices  map[string]*TrustedDevice
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*User),
		devices: make(map[string]*TrustedDevice),
	}
}

// FindByID implements [UserStore].
func (s *MemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

// FindByUsername implements [UserStore].
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	username = strings.ToLower(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.ToLower(user.Username) == username {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByEmail implements [UserStore].
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	email = strings.ToLower(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.ToLower(user.Email) == email {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByProvider implements [UserStore].
func (s *MemoryStore) FindByProvider(_ context.Context, provider string, providerID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Provider == provider && user.ProviderID == providerID {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByVerifyTokenDigest implements [UserStore].
func (s *MemoryStore) FindByVerifyTokenDigest(_ context.Context, digest string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.EmailVerifyToken != "" && user.EmailVerifyToken == digest {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByResetTokenDigest implements [UserStore].
func (s *MemoryStore) FindByResetTokenDigest(_ context.Context, digest string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.ResetToken != "" && user.ResetToken == digest {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

// FindUnverifiedCreatedBefore implements [UserStore].
func (s *MemoryStore) FindUnverifiedCreatedBefore(_ context.Context, cutoff time.Time) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*User
	for _, user := range s.users {
		if !user.IsEmailVerified && user.CreatedAt.Before(cutoff) {
			out = append(out, copyUser(user))
		}
	}
	return out, nil
}

// Create implements [UserStore].
func (s *MemoryStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return ErrEmailTaken
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

// Update implements [UserStore].
func (s *MemoryStore) Update(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; !exists {
		return ErrUserNotFound
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

// Delete implements [UserStore].
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// Record implements [LoginAttemptStore].
func (s *MemoryStore) Record(_ context.Context, attempt *LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := *attempt
	s.attempts = append(s.attempts, &a)
	return nil
}

// CountFailuresSince implements [LoginAttemptStore].
func (s *MemoryStore) CountFailuresSince(_ context.Context, filter AttemptFilter, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.attempts {
		if !a.Success && a.CreatedAt.After(since) && filterMatches(filter, a) {
			count++
		}
	}
	return count, nil
}

// LastSuccessAt implements [LoginAttemptStore].
func (s *MemoryStore) LastSuccessAt(_ context.Context, filter AttemptFilter) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	for _, a := range s.attempts {
		if a.Success && a.CreatedAt.After(last) && filterMatches(filter, a) {
			last = a.CreatedAt
		}
	}
	return last, nil
}

// LastFailureAt implements [LoginAttemptStore].
func (s *MemoryStore) LastFailureAt(_ context.Context, filter AttemptFilter, since time.Time) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	for _, a := range s.attempts {
		if !a.Success && a.CreatedAt.After(since) && a.CreatedAt.After(last) && filterMatches(filter, a) {
			last = a.CreatedAt
		}
	}
	return last, nil
}

// AttributeUser implements [LoginAttemptStore].
func (s *MemoryStore) AttributeUser(_ context.Context, filter AttemptFilter, since time.Time, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.attempts {
		if a.UserID == "" && a.CreatedAt.After(since) && filterMatches(filter, a) {
			a.UserID = userID
		}
	}
	return nil
}

// Get implements [TrustedDeviceStore]. Expired records count as absent.
func (s *MemoryStore) Get(_ context.Context, userID string, deviceID string) (*TrustedDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.devices[deviceKey(userID, deviceID)]
	if !ok || time.Now().After(device.ExpiresAt) {
		return nil, ErrDeviceNotTrusted
	}

	d := *device
	return &d, nil
}

// Upsert implements [TrustedDeviceStore].
func (s *MemoryStore) Upsert(_ context.Context, device *TrustedDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := *device
	s.devices[deviceKey(device.UserID, device.DeviceID)] = &d
	return nil
}

// DeleteAllForUser implements [TrustedDeviceStore].
func (s *MemoryStore) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, device := range s.devices {
		if device.UserID == userID {
			delete(s.devices, key)
			n++
		}
	}
	return n, nil
}

// filterMatches applies the OR semantics documented on [AttemptFilter].
func filterMatches(f AttemptFilter, a *LoginAttempt) bool {
	if f.IP != "" && a.IP == f.IP {
		return true
	}
	if f.Identifier != "" && a.Identifier == f.Identifier {
		return true
	}
	if f.DeviceID != "" && a.DeviceID == f.DeviceID {
		return true
	}
	return false
}

func deviceKey(userID string, deviceID string) string {
	return userID + "\x00" + deviceID
}

func copyUser(u *User) *User {
	c := *u
	return &c
}
