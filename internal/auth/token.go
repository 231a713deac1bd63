package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/zonemap/zonemap/internal/model"
)

// Token errors.
var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// TokenIssuer signs and verifies session tokens for authenticated
// principals. Tokens are HS256 JWTs carrying the realm as a custom claim.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// sessionClaims is the JWT claim set for a session token.
type sessionClaims struct {
	Realm string `json:"realm"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue creates a signed session token for the principal.
func (t *TokenIssuer) Issue(p *model.Principal) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Realm: string(p.Realm),
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a session token, returning the principal it
// was issued for.
func (t *TokenIssuer) Verify(tokenString string) (*model.Principal, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	realm := model.Realm(claims.Realm)
	if !realm.IsValid() {
		return nil, ErrTokenInvalid
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &model.Principal{
		Realm: realm,
		ID:    id,
		Email: claims.Email,
	}, nil
}
