package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt work factor for stored passwords.
	PasswordCost = 10
	// MaxPasswordBytes is bcrypt's input limit. It is a byte count, so a
	// password of multibyte characters reaches it well before 72 runes.
	MaxPasswordBytes = 72
)

// ErrPasswordMismatch is returned for a wrong password and for an unknown
// account checked through CheckMissing.
var ErrPasswordMismatch = errors.New("password mismatch")

func HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", bcrypt.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash with a login attempt.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// CheckMissing burns one bcrypt comparison for an email with no account so
// login latency does not reveal which emails are registered. It always
// returns ErrPasswordMismatch.
func CheckMissing(plain string) error {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("worklink-no-such-user"), PasswordCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
	return ErrPasswordMismatch
}
