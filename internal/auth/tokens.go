package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the set of user facts carried by an access token.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Fullname string
}

// AccessClaims are the claims of a short-lived access token.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims of a long-lived refresh token.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// Signer signs and verifies access and refresh tokens with separate HMAC secrets.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewSigner constructs a Signer. Each token kind has its own secret and lifetime.
func NewSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (s *Signer) WithNowFunc(now func() time.Time) {
	s.now = now
}

// SignAccess issues an access token for id.
func (s *Signer) SignAccess(id Identity) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}
	now := s.now()
	expires := now.Add(s.accessTTL)
	claims := AccessClaims{
		UserID:           id.UserID,
		Email:            id.Email,
		Username:         id.Username,
		Fullname:         id.Fullname,
		RegisteredClaims: registered(id.UserID, now, expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// SignRefresh issues a refresh token for userID.
func (s *Signer) SignRefresh(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}
	now := s.now()
	expires := now.Add(s.refreshTTL)
	claims := RefreshClaims{
		UserID:           userID,
		RegisteredClaims: registered(userID, now, expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expires, nil
}

// VerifyAccess checks the signature and expiry of an access token.
func (s *Signer) VerifyAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(token, &claims, s.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// VerifyRefresh checks the signature and expiry of a refresh token.
func (s *Signer) VerifyRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(token, &claims, s.refreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

type userClaims interface {
	jwt.Claims
	subject() string
}

func (c *AccessClaims) subject() string  { return c.UserID }
func (c *RefreshClaims) subject() string { return c.UserID }

func (s *Signer) parse(token string, claims userClaims, secret []byte) error {
	if token == "" {
		return ErrTokenMissing
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.subject() == "" {
		return ErrTokenInvalid
	}
	return nil
}

func registered(subject string, now, expires time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
}
