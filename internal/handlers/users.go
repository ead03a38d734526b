package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	accessTokenCookie  = middleware.AccessTokenCookie
	refreshTokenCookie = "refreshToken"
	refreshTokenHeader = "X-Refresh-Token"
)

// CookieOptions controls the attributes of the auth cookies.
type CookieOptions struct {
	Secure bool
}

// UserHandler implements account, session and channel profile endpoints.
type UserHandler struct {
	Users          UserStore
	Sessions       SessionManager
	Media          MediaStore
	Reader         ReadModels
	Cookies        CookieOptions
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// Register handles POST /api/v1/users/register. The body is a multipart form with an
// avatar file and an optional cover image.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		return err
	}

	username := strings.ToLower(formValue(r, "username"))
	email := strings.ToLower(formValue(r, "email"))
	fullname := formValue(r, "fullname")
	password := r.FormValue("password")

	if username == "" || email == "" || fullname == "" || strings.TrimSpace(password) == "" {
		return api.BadRequest("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return api.BadRequest("Invalid email address")
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return api.Conflict("User already exists with this email or username")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return api.Internal("Something went wrong while registering user", err)
	}

	avatarFile := formFile(r, "avatar")
	if avatarFile == nil {
		return api.BadRequest("Avatar is required")
	}

	avatar, err := h.Media.Store(ctx, media.KindAvatar, avatarFile)
	if err != nil {
		return uploadError(err, "Error while uploading avatar")
	}

	var cover media.Upload
	if coverFile := formFile(r, "coverImage", "coverimage"); coverFile != nil {
		cover, err = h.Media.Store(ctx, media.KindCoverImage, coverFile)
		if err != nil {
			discardAssets(r, h.Media, avatar.PublicID)
			return uploadError(err, "Error while uploading cover image")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		discardAssets(r, h.Media, avatar.PublicID, cover.PublicID)
		return api.Internal("Something went wrong while registering user", err)
	}

	now := clock(h.NowFunc)
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Fullname:     fullname,
		Avatar:       avatar.URL,
		AvatarID:     avatar.PublicID,
		CoverImage:   cover.URL,
		CoverImageID: cover.PublicID,
		Password:     string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		discardAssets(r, h.Media, avatar.PublicID, cover.PublicID)
		if errors.Is(err, repositories.ErrConflict) {
			return api.Conflict("User already exists with this email or username")
		}
		return api.Internal("Something went wrong while registering user", err)
	}

	logger.Info("user registered", "userId", user.ID, "username", user.Username)
	api.Respond(ctx, w, http.StatusCreated, user, "User registered successfully")
	return nil
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" && req.Email == "" {
		return api.BadRequest("Username or email is required")
	}
	if req.Password == "" {
		return api.BadRequest("Password is required")
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return lookupError(err, "User does not exist")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		return api.Unauthorized("Invalid user credentials")
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		return api.Internal("Something went wrong while generating tokens", err)
	}

	h.setAuthCookies(w, tokens)
	api.Respond(ctx, w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
	return nil
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := h.Sessions.Revoke(r.Context(), user.ID); err != nil {
		return api.Internal("Something went wrong while logging out", err)
	}

	h.clearAuthCookies(w)
	api.Respond(r.Context(), w, http.StatusOK, struct{}{}, "User logged out successfully")
	return nil
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refresh token is read from
// the cookie, the request body or the X-Refresh-Token header, in that order.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		token = strings.TrimSpace(r.Header.Get(refreshTokenHeader))
	}
	if token == "" {
		return api.Unauthorized("Unauthorized request")
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("refresh token rejected", "error", err)
		if errors.Is(err, auth.ErrRefreshTokenReused) {
			return api.Unauthorized("Refresh token is expired or used").Wrap(err)
		}
		if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenMissing) {
			return api.Unauthorized("Invalid refresh token").Wrap(err)
		}
		return api.Internal("Something went wrong while refreshing tokens", err)
	}

	h.setAuthCookies(w, tokens)
	api.Respond(ctx, w, http.StatusOK, tokens, "Access token refreshed")
	return nil
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.OldPassword == "" || strings.TrimSpace(req.NewPassword) == "" {
		return api.BadRequest("Old and new password are required")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return api.BadRequest("Invalid old password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return api.Internal("Something went wrong while changing password", err)
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return storeError("Something went wrong while changing password", err)
	}

	api.Respond(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
	return nil
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	api.Respond(r.Context(), w, http.StatusOK, user, "Current user fetched successfully")
	return nil
}

// UpdateAccount handles PATCH /api/v1/users/update-account. Omitted fields keep their value.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Fullname == "" && req.Email == "" {
		return api.BadRequest("Please provide fullname or email")
	}
	if req.Fullname == "" {
		req.Fullname = user.Fullname
	}
	if req.Email == "" {
		req.Email = user.Email
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		return api.BadRequest("Invalid email address")
	}

	updated, err := h.Users.UpdateDetails(ctx, user.ID, req.Fullname, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return api.Conflict("Email is already in use")
		}
		return storeError("Something went wrong while updating account", err)
	}

	api.Respond(ctx, w, http.StatusOK, updated, "Account details updated successfully")
	return nil
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, imageSlot{
		kind:    media.KindAvatar,
		fields:  []string{"avatar"},
		missing: "Avatar file is missing",
		label:   "avatar",
		swap:    h.Users.UpdateAvatar,
		done:    "Avatar updated successfully",
	})
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, imageSlot{
		kind:    media.KindCoverImage,
		fields:  []string{"coverImage", "coverimage"},
		missing: "Cover image file is missing",
		label:   "cover image",
		swap:    h.Users.UpdateCoverImage,
		done:    "Cover image updated successfully",
	})
}

type imageSlot struct {
	kind    media.Kind
	fields  []string
	missing string
	label   string
	swap    func(ctx context.Context, id string, asset models.Asset) (models.Asset, error)
	done    string
}

// replaceImage commits the new image reference first and then deletes the old object.
// A failed delete is reported but the new reference stays in place.
func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, slot imageSlot) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		return err
	}
	file := formFile(r, slot.fields...)
	if file == nil {
		return api.BadRequest(slot.missing)
	}

	upload, err := h.Media.Store(ctx, slot.kind, file)
	if err != nil {
		return uploadError(err, "Error while uploading "+slot.label)
	}

	previous, err := slot.swap(ctx, user.ID, upload.Asset)
	if err != nil {
		discardAssets(r, h.Media, upload.PublicID)
		return storeError("Something went wrong while updating "+slot.label, err)
	}

	if err := h.Media.Delete(ctx, previous.PublicID); err != nil {
		return api.Internal("Error while deleting old "+slot.label, err)
	}

	updated, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		return lookupError(err, "User not found")
	}

	api.Respond(ctx, w, http.StatusOK, updated, slot.done)
	return nil
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	viewer, err := currentUser(r)
	if err != nil {
		return err
	}

	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		return api.BadRequest("Username is missing")
	}

	channel, err := h.Reader.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		return lookupError(err, "Channel does not exist")
	}

	api.Respond(ctx, w, http.StatusOK, channel, "Channel fetched successfully")
	return nil
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	history, err := h.Reader.WatchHistory(ctx, user.ID)
	if err != nil {
		return api.Internal("Something went wrong while fetching watch history", err)
	}

	api.Respond(ctx, w, http.StatusOK, history, "Watch history fetched successfully")
	return nil
}

func (h UserHandler) setAuthCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, h.cookie(accessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(refreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := h.cookie(name, "", time.Time{})
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
