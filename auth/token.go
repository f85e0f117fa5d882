package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "buddychat"

// CustomClaims defines the structure of the data stored inside the JWT.
// Tokens are issued by the identity provider; the chat core only checks them.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens signs and validates HS256 tokens with a shared secret.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) (Tokens, error) {
	if len(secret) < 16 {
		return Tokens{}, fmt.Errorf("auth secret must be at least 16 bytes long, got %d", len(secret))
	}
	return Tokens{secret: []byte(secret)}, nil
}

// GenerateToken creates a signed JWT for a specific user.
// Used by tests and the CLI client against a development server.
func (t Tokens) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
func (t Tokens) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id claim is empty", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
