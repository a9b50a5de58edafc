// Package auth implements the credential primitives: password digests and
// signed session tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/placekeeper/placekeeper/internal/common"
)

// Claims carries the session identity: registered claims plus the subject's
// user id and email.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// GenerateToken issues an HS256-signed session token for the given identity,
// valid from now until now+validityDuration.
func GenerateToken(userID, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns the identity it carries.
// Every failure mode (missing, malformed, bad signature, expired) collapses
// into common.ErrorUnauthorized so callers cannot distinguish them.
func ParseToken(tokenString string, secretKey []byte) (userID string, email string, err error) {
	if tokenString == "" {
		return "", "", common.ErrorUnauthorized
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", "", common.ErrorUnauthorized
	}

	return claims.UserID, claims.Email, nil
}
