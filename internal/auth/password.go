package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/hpungsan/tracky/internal/errors"
)

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		if err == bcrypt.ErrPasswordTooLong {
			return "", errors.NewInvalidRequest("password is too long")
		}
		return "", errors.NewInternal(err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
