// Package auth consumes the external identity provider's signal. It only
// verifies tokens; registration, login and password handling live in the
// identity service.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier answers "is this shopper authenticated, and who are they".
type Verifier interface {
	Verify(ctx context.Context, token string) (shopperID string, ok bool)
}

type jwtVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) Verifier {
	return &jwtVerifier{secret: secret}
}

func (v *jwtVerifier) Verify(ctx context.Context, tokenStr string) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	shopperID, ok := claims["user_id"].(string)
	if !ok || shopperID == "" {
		return "", false
	}
	return shopperID, true
}
