// internal/app/system/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTokenTTL is how long an issued bearer token stays valid (48 hours).
const DefaultTokenTTL = 48 * time.Hour

var (
	// ErrTokenExpired is returned when the token's exp claim is in the past.
	ErrTokenExpired = errors.New("auth token expired")
	// ErrTokenInvalid is returned for forged, malformed, or claim-less tokens.
	ErrTokenInvalid = errors.New("auth token invalid")
)

// Token is the credential handed to clients after signin or verification.
type Token struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"` // always "bearer"
}

// Issuer mints and validates signed bearer tokens. It holds no mutable
// state beyond the clock and is safe for concurrent use.
type Issuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer for the given process-wide secret and signing
// algorithm name (HS256, HS384, or HS512). A non-positive ttl falls back to
// DefaultTokenTTL.
func NewIssuer(secret, algorithm string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("auth: unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: signing algorithm %q is not HMAC-based", algorithm)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the validity window for issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a signed bearer token for the given user.
func (i *Issuer) Issue(userID primitive.ObjectID) (Token, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// Validate checks the signature and validity window and returns the subject
// user ID. Expired tokens yield ErrTokenExpired; everything else that fails
// verification yields ErrTokenInvalid.
func (i *Issuer) Validate(tokenString string) (primitive.ObjectID, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, ErrTokenExpired
		}
		return primitive.NilObjectID, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return primitive.NilObjectID, ErrTokenInvalid
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, ErrTokenInvalid
	}
	return userID, nil
}
