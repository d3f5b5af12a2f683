package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// User is a provisioned gateway caller. ProviderID ties the session to the
// provider facility the user submits on behalf of.
type User struct {
	Username     string
	PasswordHash []byte
	Role         string
	ProviderID   string
}

// ErrInvalidCredentials covers both unknown users and wrong passwords, so
// callers cannot probe for valid usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore holds provisioned users in memory. User provisioning is a
// deployment concern (config), not an API one, so there is no write surface
// beyond seeding.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]User)}
}

// Add registers a user, replacing any previous entry with the same username.
func (s *UserStore) Add(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = u
}

// Authenticate verifies username/password and returns the matching user.
func (s *UserStore) Authenticate(username, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// LoadUsers parses GATEWAY_USERS entries of the form
// "username:bcrypt-hash:role:providerId" (comma separated) into the store.
func (s *UserStore) LoadUsers(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	for _, entry := range strings.Split(spec, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 4)
		if len(parts) != 4 {
			return fmt.Errorf("malformed user entry %q: want username:hash:role:providerId", entry)
		}
		s.Add(User{
			Username:     parts[0],
			PasswordHash: []byte(parts[1]),
			Role:         parts[2],
			ProviderID:   parts[3],
		})
	}
	return nil
}

// SeedDev provisions the development login. Only wired when ENV=development.
func (s *UserStore) SeedDev() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.Add(User{
		Username:     "demo.provider",
		PasswordHash: hash,
		Role:         "provider",
		ProviderID:   "1234567",
	})
	return nil
}
