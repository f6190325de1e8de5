package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var signingMethod = jwt.SigningMethodHS256

// ErrMisconfigured means the JWT settings cannot sign or verify anything.
var ErrMisconfigured = errors.New("auth: jwt config incomplete")

// AccessTokenClaims is the body of an access token. The JWT id doubles as the
// session key checked on every request.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email,omitempty"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func checkConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return fmt.Errorf("%w: secret missing", ErrMisconfigured)
	case cfg.Issuer == "":
		return fmt.Errorf("%w: issuer missing", ErrMisconfigured)
	case cfg.AccessTokenTTL() <= 0:
		return fmt.Errorf("%w: expiration must be positive", ErrMisconfigured)
	}
	return nil
}

// IssueAccessToken signs a token for who, valid from now for the configured
// TTL. An empty JTI is filled with a fresh UUID.
func IssueAccessToken(cfg config.JWTConfig, now time.Time, who Identity) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if who.UserID == uuid.Nil {
		return "", errors.New("auth: token subject missing")
	}
	if !who.Role.IsValid() {
		return "", fmt.Errorf("auth: invalid role %q", who.Role)
	}
	if who.JTI == "" {
		who.JTI = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID: who.UserID,
		Email:  who.Email,
		Role:   who.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        who.JTI,
			Issuer:    cfg.Issuer,
			Subject:   who.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL())),
		},
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
}

// VerifyAccessToken checks signature, algorithm, issuer and expiry, then the role.
func VerifyAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: secret missing", ErrMisconfigured)
	}
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("auth: invalid role %q", claims.Role)
	}
	return claims, nil
}
