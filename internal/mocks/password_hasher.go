package mocks

import (
	"strings"
	"sync"

	"github.com/phrazzld/task-api/internal/service/auth"
)

// HashPrefix is prepended to a password by MockPasswordHasher.Hash.
const HashPrefix = "hashed:"

// MockPasswordHasher implements auth.PasswordHasher for testing. By default
// Hash prefixes the password with HashPrefix and Compare reverses that, so
// tests avoid bcrypt's cost.
type MockPasswordHasher struct {
	// HashFn allows for custom hashing logic in tests
	HashFn func(password string) (string, error)

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCalledWith stores the arguments passed to Compare for verification
	CompareCalledWith struct {
		HashedPassword string
		Password       string
	}

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int

	mu sync.Mutex
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return HashPrefix + password, nil
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.mu.Lock()
	m.CompareCalledWith.HashedPassword = hashedPassword
	m.CompareCalledWith.Password = password
	m.CompareCallCount++
	m.mu.Unlock()

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}

	if !strings.HasPrefix(hashedPassword, HashPrefix) ||
		strings.TrimPrefix(hashedPassword, HashPrefix) != password {
		return auth.ErrPasswordMismatch
	}
	return nil
}
