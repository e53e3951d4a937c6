package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// ErrNotInitialized is returned when tokens are used before InitializeJWT
var ErrNotInitialized = errors.New("JWT secret not initialized")

// JWTClaims represents the JWT token claims. The registered ID (jti) is the
// server-side session row the token belongs to.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the session row the token names
func (c *JWTClaims) SessionID() string {
	return c.ID
}

// InitializeJWT sets the JWT secret key
func InitializeJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateToken creates a new JWT token for a session issued at now
func GenerateToken(sessionID, userID, role string, now, expiresAt time.Time) (string, error) {
	if len(jwtSecret) == 0 {
		return "", ErrNotInitialized
	}

	claims := JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	return ValidateTokenAt(tokenString, time.Now())
}

// ValidateTokenAt validates a JWT token as of now
func ValidateTokenAt(tokenString string, now time.Time) (*JWTClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, ErrNotInitialized
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.ID == "" {
			return nil, fmt.Errorf("token has no session id")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
