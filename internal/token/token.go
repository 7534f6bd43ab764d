// Package token issues and reads the signed access tokens handed to clients.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abduss/forum/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid access token")

// Claims is the claim set carried by an access token. Role and IsBanned are stringified.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	IsBanned string `json:"isBanned"`
	jwt.RegisteredClaims
}

// RoleValue parses the role claim, returning 0 when it is malformed.
func (c Claims) RoleValue() int {
	role, err := strconv.Atoi(c.Role)
	if err != nil {
		return 0
	}
	return role
}

// Banned parses the isBanned claim.
func (c Claims) Banned() bool {
	banned, _ := strconv.ParseBool(c.IsBanned)
	return banned
}

// Subject is the identity an access token is minted for.
type Subject struct {
	Username string
	Role     int
	IsBanned bool
}

// Issuer signs and verifies HS512 access tokens.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	nowFunc  func() time.Time
	parser   *jwt.Parser
}

// NewIssuer builds an Issuer from the auth settings.
func NewIssuer(cfg config.AuthConfig) *Issuer {
	i := &Issuer{
		secret:   []byte(cfg.AccessTokenSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.AccessTokenTTL,
		nowFunc:  time.Now,
	}
	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Name}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return i.nowFunc() }),
	)
	return i
}

// Issue mints a token valid from now until now+ttl.
func (i *Issuer) Issue(sub Subject) (string, time.Time, error) {
	now := i.nowFunc()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		Username: sub.Username,
		Role:     strconv.Itoa(sub.Role),
		IsBanned: strconv.FormatBool(sub.IsBanned),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies signature, issuer, audience and validity window.
func (i *Issuer) Validate(raw string) (Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	parsed, err := i.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Username == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
