package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/visiontf/authcore/model"
)

type AccessClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	SessionToken string `json:"sessionToken,omitempty"`
	jwt.RegisteredClaims
}

// UserID decodes the subject claim back to the account ID.
func (c *AccessClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// TokenIssuer signs short-lived access tokens. Refresh tokens are opaque
// random strings persisted separately; only the access token is a JWT.
type TokenIssuer struct {
	issuer     string
	signingKey []byte
	maxAge     time.Duration
}

func NewTokenIssuer(issuer string, signingKey string, maxAge time.Duration) *TokenIssuer {
	return &TokenIssuer{
		issuer:     issuer,
		signingKey: []byte(signingKey),
		maxAge:     maxAge,
	}
}

func (i *TokenIssuer) Sign(user *model.User, sessionToken string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email:        user.Email,
		Role:         user.Role,
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
}

// Parse verifies the signature, issuer and expiry of an access token and
// returns its claims. Any failure comes back as ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.signingKey, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
