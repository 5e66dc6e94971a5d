// Package auth mints and verifies the HS256 session tokens handed out at login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the subject (user id) in the registered "sub" claim plus
// the username at the time of login.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

func GenerateToken(userID, username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generateTokenAt(userID, username, secretKey, validityDuration, time.Now())
}

func generateTokenAt(userID, username string, secretKey []byte, validityDuration time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Username: username,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry and returns the claims.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
