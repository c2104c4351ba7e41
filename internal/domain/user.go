package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthProvider identifies where a user's identity comes from
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "LOCAL"
	AuthProviderGoogle AuthProvider = "GOOGLE"
	AuthProviderKakao  AuthProvider = "KAKAO"
	AuthProviderNaver  AuthProvider = "NAVER"
)

// Role is the authorization level of a user
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User owns assets, transactions, snapshots and API keys
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	AuthProvider AuthProvider
	Role         Role
	IsActive     bool
	LastLoginAt  *time.Time
	Timestamps
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects empty or unparsable addresses
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidArgument, email)
	}
	return nil
}

// Validate checks the email and role invariants
func (u *User) Validate() error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, u.Role)
	}
	if u.AuthProvider == AuthProviderLocal && u.PasswordHash == "" {
		return fmt.Errorf("%w: local users need a password", ErrInvalidArgument)
	}
	return nil
}

// IsSocialLogin reports whether the user authenticates through a third party
func (u *User) IsSocialLogin() bool {
	return u.AuthProvider != "" && u.AuthProvider != AuthProviderLocal
}

// IsAdmin reports whether the user holds the ADMIN role
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsAccountActive reports whether the user may log in
func (u *User) IsAccountActive() bool { return u.IsActive }

// UpdateLastLogin records a successful login at now
func (u *User) UpdateLastLogin(now time.Time) {
	u.LastLoginAt = &now
}

// ChangeEmail replaces the address after validating it
func (u *User) ChangeEmail(email string) error {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	u.Email = email
	return nil
}
