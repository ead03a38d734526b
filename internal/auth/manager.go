package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates no refresh token is stored for the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound is returned by a UserLoader when the token's user is gone.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenMissing indicates no token was presented.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenInvalid indicates a token that fails signature or claim checks.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrRefreshTokenReused indicates a validly signed refresh token that is no
	// longer the one stored for the user.
	ErrRefreshTokenReused = errors.New("refresh token is expired or used")
)

// SessionStore persists the single active refresh token of each user.
// Rotate replaces the stored token only while it still equals current and
// returns ErrRefreshTokenReused otherwise.
type SessionStore interface {
	Save(ctx context.Context, userID, refreshToken string) error
	Find(ctx context.Context, userID string) (string, error)
	Rotate(ctx context.Context, userID, current, next string) error
	Delete(ctx context.Context, userID string) error
}

// UserLoader resolves the user a refresh token belongs to. A missing user is
// reported as ErrUserNotFound.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Manager issues, rotates and revokes token pairs.
type Manager struct {
	signer *Signer
	store  SessionStore
	users  UserLoader
}

// NewManager constructs a Manager backed by a persistent store.
func NewManager(signer *Signer, store SessionStore, users UserLoader) *Manager {
	if signer == nil || store == nil || users == nil {
		panic("auth: signer, session store and user loader must not be nil")
	}
	return &Manager{signer: signer, store: store, users: users}
}

// Issue signs a new token pair for user and stores the refresh token,
// invalidating any previously issued one.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := m.sign(user)
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := m.store.Save(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh exchanges the presented refresh token for a new pair. The token must
// verify and must still be the one stored for its user; of concurrent refreshes
// with the same token only one succeeds.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	claims, err := m.signer.VerifyRefresh(refreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.TokenPair{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
		return models.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	pair, err := m.sign(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.Rotate(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrRefreshTokenReused) {
			return models.TokenPair{}, ErrRefreshTokenReused
		}
		return models.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

func (m *Manager) sign(user models.User) (models.TokenPair, error) {
	access, accessExp, err := m.signer.SignAccess(Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Fullname: user.Fullname,
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, refreshExp, err := m.signer.SignRefresh(user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Authenticate verifies an access token and returns its claims.
func (m *Manager) Authenticate(accessToken string) (AccessClaims, error) {
	return m.signer.VerifyAccess(accessToken)
}

// Revoke clears the stored refresh token so no outstanding token can be refreshed.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, userID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}
