package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse", hash))
	assert.False(t, h.Verify("correct horse", "not-a-hash"))
}

func testUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "a@example.com", Role: domain.RoleAdmin}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", "assetmanager", time.Hour).WithClock(func() time.Time { return now })
	user := testUser()

	token, expiresAt, err := m.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestTokenManager_Rejects(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenManager("secret", "assetmanager", time.Hour).WithClock(func() time.Time { return issuedAt })
	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
	}{
		{
			name:    "Empty token",
			manager: issuer,
			token:   "",
		},
		{
			name:    "Garbage token",
			manager: issuer,
			token:   "not.a.token",
		},
		{
			name:    "Wrong secret",
			manager: NewTokenManager("other", "assetmanager", time.Hour).WithClock(func() time.Time { return issuedAt }),
			token:   token,
		},
		{
			name:    "Wrong issuer",
			manager: NewTokenManager("secret", "someone-else", time.Hour).WithClock(func() time.Time { return issuedAt }),
			token:   token,
		},
		{
			name:    "Expired",
			manager: NewTokenManager("secret", "assetmanager", time.Hour).WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }),
			token:   token,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.manager.Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	m := NewTokenManager("secret", "", time.Hour)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClaims_UserID_Malformed(t *testing.T) {
	c := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}

	_, err := c.UserID()
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSecretBox(t *testing.T) {
	box := NewSecretBox("passphrase")

	sealed, err := box.Seal("exchange-secret")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "exchange-secret")

	again, err := box.Seal("exchange-secret")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "exchange-secret", plain)

	_, err = NewSecretBox("other").Open(sealed)
	assert.ErrorIs(t, err, ErrSealedSecret)

	_, err = box.Open("%%%")
	assert.ErrorIs(t, err, ErrSealedSecret)
}
