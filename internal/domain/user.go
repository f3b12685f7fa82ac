package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role is the authorization role of a user.
type Role string

// Supported roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Name and password limits.
const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// User represents a registered user of the application.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Password       string    `json:"-"` // Plaintext, only held during registration
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates a new User with a fresh ID and timestamps. The email is
// normalized and an empty role defaults to RoleUser.
// Returns a *ValidationError listing every violated rule.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(name, email, password string, role Role) (*User, error) {
	if role == "" {
		role = RoleUser
	}

	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Role:      role,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// NormalizeEmail trims and lower-cases an email address. Emails are compared
// in this form everywhere, which makes uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	verr := &ValidationError{}

	if u.ID == uuid.Nil {
		verr.Add("id", "User ID is required")
	}

	switch n := utf8.RuneCountInString(u.Name); {
	case n < MinNameLength:
		verr.Add("name", "Name must be at least 2 characters")
	case n > MaxNameLength:
		verr.Add("name", "Name cannot be more than 50 characters")
	}

	if !emailPattern.MatchString(u.Email) {
		verr.Add("email", "Invalid email format")
	}

	if u.Password != "" {
		verr.Merge(ValidatePassword(u.Password))
	} else if u.HashedPassword == "" {
		// Stored users carry only the hash; new users must supply a password.
		verr.Merge(ValidatePassword(""))
	}

	if !u.Role.Valid() {
		verr.Add("role", "Role must be one of: user, admin")
	}

	return verr.Err()
}

// ValidatePassword checks the password composition rules and returns nil
// when all of them hold. Each failed rule gets its own violation so the
// client learns exactly which property is missing.
func ValidatePassword(password string) *ValidationError {
	verr := &ValidationError{}

	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		verr.Add("password", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		verr.Add("password", "Password cannot be more than 72 characters")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		verr.Add("password", "Password must contain at least one uppercase letter")
	}
	if !lower {
		verr.Add("password", "Password must contain at least one lowercase letter")
	}
	if !digit {
		verr.Add("password", "Password must contain at least one number")
	}

	if len(verr.Violations) == 0 {
		return nil
	}
	return verr
}
