package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tradelens/hts-tracker/internal/config"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// TokenExtractor verifies HS256 bearer tokens and reads the user id from the subject claim.
type TokenExtractor struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenExtractor(cfg config.AuthConfig) *TokenExtractor {
	return &TokenExtractor{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// ExtractUserIDFromHeader parses an "Authorization: Bearer <token>" header value.
func (te *TokenExtractor) ExtractUserIDFromHeader(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return te.ExtractUserID(strings.TrimSpace(token))
}

// ExtractUserID validates the token signature, expiry and issuer and returns its subject.
func (te *TokenExtractor) ExtractUserID(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(te.now),
	}
	if te.issuer != "" {
		opts = append(opts, jwt.WithIssuer(te.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return te.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// IssueToken signs a token for userID. Used by tradectl and tests; production tokens
// come from the identity provider sharing the same secret.
func (te *TokenExtractor) IssueToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is empty")
	}
	now := te.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    te.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(te.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(te.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
