// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/workshop/internal/logging"
)

const (
	// MinSecretBytes is the minimum HS256 key length.
	MinSecretBytes = 32

	// MaxScopeBytes bounds the rendered authority list inside the token.
	MaxScopeBytes = 2048

	// MaxTokenBytes is the exclusive upper bound of a serialized token so it
	// fits in a browser cookie.
	MaxTokenBytes = 4096
)

// TokenConfig configures a TokenCodec.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenCodec encodes and decodes the HS256 tokens carried in the
// authentication cookie. It is safe for concurrent use; the key is fixed at
// construction.
type TokenCodec struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// DecodedToken is the verified content of a token.
type DecodedToken struct {
	ID          string
	Subject     string
	Authorities []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// tokenClaims is the wire format: {iss, aud, sub, iat, exp, scope} plus jti.
// aud is a single string, not an array.
type tokenClaims struct {
	Issuer    string           `json:"iss"`
	Audience  string           `json:"aud"`
	Subject   string           `json:"sub"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
	Scope     *string          `json:"scope"`
	ID        string           `json:"jti,omitempty"`
}

var _ jwt.Claims = (*tokenClaims)(nil)

func (c *tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c *tokenClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c *tokenClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *tokenClaims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c *tokenClaims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c *tokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	if c.Audience == "" {
		return nil, nil
	}
	return jwt.ClaimStrings{c.Audience}, nil
}

// NewTokenCodec creates a codec. The secret must be at least 32 bytes and
// issuer and audience must be set.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, NewError(KindInvalidArgument,
			fmt.Sprintf("token secret must be at least %d bytes", MinSecretBytes), nil)
	}
	if strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "" {
		return nil, NewError(KindInvalidArgument, "token issuer and audience are required", nil)
	}
	if cfg.TTL <= 0 {
		return nil, NewError(KindInvalidArgument, "token ttl must be positive", nil)
	}

	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)

	return &TokenCodec{
		key:      key,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}, nil
}

// TTL returns the default token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Encode signs a token for subject. Empty audience or issuer fall back to
// the configured values; ttl <= 0 uses the configured TTL. Authorities that
// do not fit MaxScopeBytes are dropped from the tail.
func (c *TokenCodec) Encode(subject, audience, issuer string, authorities []string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", NewError(KindInvalidPrincipal, "subject is null or empty", nil)
	}
	if audience == "" {
		audience = c.audience
	}
	if issuer == "" {
		issuer = c.issuer
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	normalized := NormalizeAuthorities(authorities)
	if err := ValidateAuthorities(normalized); err != nil {
		return "", err
	}
	scope, kept := renderScope(normalized, MaxScopeBytes)
	if kept < len(normalized) {
		ScopeTruncations.Inc()
		logging.Warn().
			Str("subject", logging.SanitizeLogin(subject)).
			Int("authorities", len(normalized)).
			Int("kept", kept).
			Msg("Token scope truncated to fit cookie size")
	}

	now := c.now()
	claims := &tokenClaims{
		Issuer:    issuer,
		Audience:  audience,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Scope:     &scope,
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", NewError(KindServiceFailure, "failed to sign token", err)
	}
	if len(signed) >= MaxTokenBytes {
		return "", NewError(KindInvalidPrincipal,
			fmt.Sprintf("token is %d bytes", len(signed)), ErrTokenTooLarge)
	}

	TokensIssued.Inc()
	return signed, nil
}

// EncodeFor signs a token for an authentication with the configured
// audience, issuer and TTL.
func (c *TokenCodec) EncodeFor(a *Authentication) (string, error) {
	if a == nil {
		return "", NewError(KindInvalidArgument, "authentication cannot be nil", nil)
	}
	return c.Encode(a.Subject, "", "", a.Authorities, 0)
}

// Decode verifies token and returns its content. Tokens with a bad
// signature, wrong algorithm, foreign issuer or audience, or missing sub or
// scope fail with ErrTokenInvalid. Expired tokens fail with ErrTokenExpired,
// which also matches ErrTokenInvalid.
func (c *TokenCodec) Decode(token string) (*DecodedToken, error) {
	if token == "" {
		TokenDecodes.WithLabelValues("invalid").Inc()
		return nil, NewError(KindTokenInvalid, "token is empty", nil)
	}

	claims := &tokenClaims{}
	_, err := c.parser(
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	).ParseWithClaims(token, claims, c.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			TokenDecodes.WithLabelValues("expired").Inc()
			return nil, NewError(KindTokenExpired, "token expired", err)
		}
		TokenDecodes.WithLabelValues("invalid").Inc()
		return nil, NewError(KindTokenInvalid, "token verification failed", err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		TokenDecodes.WithLabelValues("invalid").Inc()
		return nil, NewError(KindTokenInvalid, "token has no subject", nil)
	}
	if claims.Scope == nil {
		TokenDecodes.WithLabelValues("invalid").Inc()
		return nil, NewError(KindTokenInvalid, "token has no scope", nil)
	}

	TokenDecodes.WithLabelValues("valid").Inc()
	decoded := &DecodedToken{
		ID:          claims.ID,
		Subject:     claims.Subject,
		Authorities: parseScope(*claims.Scope),
		ExpiresAt:   claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	return decoded, nil
}

// IsExpired reports whether a correctly signed token is past its exp.
// An empty token is a caller error (ErrInvalidArgument); a token that does
// not verify fails with ErrTokenInvalid.
func (c *TokenCodec) IsExpired(token string) (bool, error) {
	if token == "" {
		return false, NewError(KindInvalidArgument, "token cannot be null or empty", nil)
	}

	claims := &tokenClaims{}
	if _, err := c.parser(jwt.WithoutClaimsValidation()).ParseWithClaims(token, claims, c.keyFunc); err != nil {
		return false, NewError(KindTokenInvalid, "token verification failed", err)
	}
	if claims.ExpiresAt == nil {
		return false, NewError(KindTokenInvalid, "token has no expiration", nil)
	}
	return !c.now().Before(claims.ExpiresAt.Time), nil
}

func (c *TokenCodec) parser(opts ...jwt.ParserOption) *jwt.Parser {
	base := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	}
	return jwt.NewParser(append(base, opts...)...)
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.key, nil
}

// renderScope renders authorities as "[A, B, C]", keeping whole names only
// while the result fits limit bytes once JSON-escaped in the claims. It
// returns the rendering and how many names it kept.
func renderScope(authorities []string, limit int) (string, int) {
	var b strings.Builder
	b.WriteByte('[')
	size := 2
	for i, a := range authorities {
		sep := 0
		if i > 0 {
			sep = 2
		}
		n := escapedLen(a)
		if size+sep+n > limit {
			b.WriteByte(']')
			return b.String(), i
		}
		size += sep + n
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a)
	}
	b.WriteByte(']')
	return b.String(), len(authorities)
}

// escapedLen is the length of s inside a JSON string as encoding/json
// writes it, with HTML escaping. It never undercounts.
func escapedLen(s string) int {
	n := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\' || c == '\n' || c == '\r' || c == '\t':
				n += 2
			case c < 0x20 || c == '<' || c == '>' || c == '&':
				n += 6
			default:
				n++
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if (r == utf8.RuneError && size == 1) || r == '\u2028' || r == '\u2029' {
			n += 6
		} else {
			n += size
		}
		i += size
	}
	return n
}

// parseScope reverses renderScope. A scope without brackets is read as a
// space-separated OAuth-style list.
func parseScope(scope string) []string {
	scope = strings.TrimSpace(scope)
	if strings.HasPrefix(scope, "[") && strings.HasSuffix(scope, "]") {
		return NormalizeAuthorities(strings.Split(scope[1:len(scope)-1], ","))
	}
	return NormalizeAuthorities(strings.Fields(scope))
}
