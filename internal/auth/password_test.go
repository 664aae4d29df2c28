package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"too short", "1234567", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"minimum", "12345678", nil},
		{"maximum", strings.Repeat("x", MaxPasswordLength), nil},
		{"too long", strings.Repeat("x", MaxPasswordLength+1), ErrPasswordTooLong},
		// the limit is bytes, not runes
		{"multibyte over limit", strings.Repeat("é", 37), ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CheckPasswordLength(tt.password), tt.want)
			if tt.want == nil {
				assert.NoError(t, CheckPasswordLength(tt.password))
			}
		})
	}
}

func TestPasswordService_HashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	hash, err := ps.Hash("board-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"), "not a bcrypt hash: %q", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.NoError(t, ps.Verify(hash, "board-password"))
	assert.ErrorIs(t, ps.Verify(hash, "Board-password"), ErrPasswordMismatch)
	assert.ErrorIs(t, ps.Verify(hash, ""), ErrPasswordMismatch)
}

func TestPasswordService_SaltsEachHash(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)
	a, err := ps.Hash("same-password")
	require.NoError(t, err)
	b, err := ps.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordService_HashRejectsLongPassword(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)
	_, err := ps.Hash(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordService_VerifyCorruptHash(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-bcrypt-hash"} {
		err := ps.Verify(hash, "password")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch, "hash %q", hash)
	}
}

func TestNewPasswordService_DefaultCost(t *testing.T) {
	assert.Equal(t, defaultCost, NewPasswordService().cost)
}
