package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[@$!%*?&]`)
	allowedReg   = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// StrongPassword reports whether password has at least 8 characters drawn
// from letters, digits and @$!%*?&, with at least one of each class.
func StrongPassword(password string) bool {
	return allowedReg.MatchString(password) &&
		hasUpperReg.MatchString(password) &&
		hasLowerReg.MatchString(password) &&
		hasDigitReg.MatchString(password) &&
		hasSymbolReg.MatchString(password)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns ErrInvalidCredentials when password does not match hash.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}
