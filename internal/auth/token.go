package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("auth: signing secret is required")
	ErrInvalidToken  = errors.New("auth: invalid token")
	ErrExpiredToken  = errors.New("auth: token expired")
)

// Token represents an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims carries the member id in the subject and their role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Manager issues and verifies HS256 access tokens.
type Manager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewManager builds a token manager. expiry is the default token lifetime.
func NewManager(secret string, expiry time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Issue signs a token for subject with the given role. A zero ttl uses the
// manager's default expiry.
func (m *Manager) Issue(subject, role string, ttl time.Duration) (Token, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Token{}, fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	if ttl <= 0 {
		ttl = m.expiry
	}

	now := m.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "bearer", ExpiresAt: exp}, nil
}

// Verify parses raw and checks its signature, algorithm and expiry.
func (m *Manager) Verify(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	return &claims, nil
}
