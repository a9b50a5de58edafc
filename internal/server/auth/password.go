package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost the account base was hashed with.
const bcryptCost = 12

// HashPassword derives an adaptive-cost one-way digest of password.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether password matches digest. A mismatch is a
// plain false, never an error.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
