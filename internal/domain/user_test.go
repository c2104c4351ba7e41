package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"Valid local user", User{Email: "a@example.com", PasswordHash: "hash", Role: RoleUser, AuthProvider: AuthProviderLocal}, false},
		{"Social user without password", User{Email: "a@example.com", Role: RoleUser, AuthProvider: AuthProviderGoogle}, false},
		{"Empty email", User{Email: "", PasswordHash: "hash", Role: RoleUser, AuthProvider: AuthProviderLocal}, true},
		{"Malformed email", User{Email: "not-an-email", PasswordHash: "hash", Role: RoleUser, AuthProvider: AuthProviderLocal}, true},
		{"Unknown role", User{Email: "a@example.com", PasswordHash: "hash", Role: "ROOT", AuthProvider: AuthProviderLocal}, true},
		{"Local user without password", User{Email: "a@example.com", Role: RoleUser, AuthProvider: AuthProviderLocal}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_ChangeEmail(t *testing.T) {
	user := User{Email: "old@example.com"}

	assert.NoError(t, user.ChangeEmail(" New@Example.com "))
	assert.Equal(t, "new@example.com", user.Email)

	assert.ErrorIs(t, user.ChangeEmail("  "), ErrInvalidArgument)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestUser_Flags(t *testing.T) {
	user := User{AuthProvider: AuthProviderKakao, Role: RoleAdmin, IsActive: true}

	assert.True(t, user.IsSocialLogin())
	assert.True(t, user.IsAdmin())
	assert.True(t, user.IsAccountActive())

	now := time.Now()
	user.UpdateLastLogin(now)
	assert.Equal(t, now, *user.LastLoginAt)
}
