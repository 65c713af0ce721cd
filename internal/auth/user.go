package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRole int

const (
	UserRoleAdmin UserRole = iota
	UserRoleReadWrite
	UserRoleReadOnly
)

func (r UserRole) String() string {
	switch r {
	case UserRoleAdmin:
		return "admin"
	case UserRoleReadWrite:
		return "read-write"
	case UserRoleReadOnly:
		return "read-only"
	}
	return "unknown"
}

type User struct {
	Id       string
	Name     string
	Password []byte
	Role     UserRole
}

// bcrypt ignores everything past 72 bytes; refuse instead of truncating silently
const maxPasswordLen = 72

func NewUser(name, password string, role UserRole) (*User, error) {
	if name == "" {
		return nil, errors.New("User name cannot be empty")
	}
	if len(password) > maxPasswordLen {
		return nil, errors.New("Password cannot be longer than 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{uuid.New().String(), name, hashed, role}, nil
}

func (u *User) ValidateUser(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

// Authenticate checks a "name:password" pair, as sent by clients.
func (u *User) Authenticate(creds string) bool {
	name, password, ok := strings.Cut(creds, ":")
	if !ok || name != u.Name {
		return false
	}
	return u.ValidateUser(password)
}

// HasClearance reports whether u may act with role r. Lower roles are stronger.
func (u *User) HasClearance(r UserRole) bool { return u.Role <= r }
