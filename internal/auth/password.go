package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Account passwords are stored only as bcrypt hashes in users.password_hash.
// Users that signed up through GitHub have an empty hash and cannot log in
// with a password.

const defaultCost = 12

// bcrypt ignores everything past byte 72, so longer passwords are refused.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	ErrPasswordMismatch = errors.New("auth: invalid password")
	ErrPasswordTooShort = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordLength)
)

// CheckPasswordLength reports whether plaintext fits the account password
// limits, returning ErrPasswordTooShort or ErrPasswordTooLong.
func CheckPasswordLength(plaintext string) error {
	switch {
	case len(plaintext) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(plaintext) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest lowers the bcrypt cost so tests that register
// users stay fast. Pass bcrypt.MinCost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext. Only the upper length limit is
// enforced here; CheckPasswordLength is the full rule for new accounts.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch
// when it does not. A hash that bcrypt cannot read is a different error:
// it means the stored row is corrupt.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
