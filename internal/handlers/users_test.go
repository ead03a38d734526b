package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/models"
)

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestUserRegister(t *testing.T) {
	env := newTestEnv(t)

	fields := map[string]string{"username": "Alice", "email": "Alice@Example.com", "fullname": "Alice A", "password": "password123"}
	req := env.multipartRequest(http.MethodPost, "/api/v1/users/register", "", fields,
		formFileSpec{field: "avatar", name: "me.png", content: []byte("avatar")},
		formFileSpec{field: "coverimage", name: "cover.png", content: []byte("cover")},
	)

	var user models.User
	decodeData(t, expectRecorder(t, env.serve(req), http.StatusCreated), &user)
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("expected normalized identity, got %+v", user)
	}
	if user.Avatar != "https://cdn.test/avatars/me.png" || user.CoverImage != "https://cdn.test/covers/cover.png" {
		t.Fatalf("unexpected image urls %+v", user)
	}

	stored, err := (memUsers{env.mem}).FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")) != nil {
		t.Fatal("stored password is not hashed")
	}

	req = env.multipartRequest(http.MethodPost, "/api/v1/users/register", "", fields,
		formFileSpec{field: "avatar", name: "again.png", content: []byte("avatar")},
	)
	expectStatus(t, env.serve(req), http.StatusConflict)
	if env.mem.hasAsset("avatars/again.png") {
		t.Fatal("expected no upload for a rejected registration")
	}
}

func TestUserRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	req := env.multipartRequest(http.MethodPost, "/api/v1/users/register", "",
		map[string]string{"username": "bob", "email": "bob@example.com", "fullname": "Bob", "password": "password123"})
	resp := expectStatus(t, env.serve(req), http.StatusBadRequest)
	if resp.Message != "Avatar is required" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	req = env.multipartRequest(http.MethodPost, "/api/v1/users/register", "",
		map[string]string{"username": "bob", "email": "bob@example.com"},
		formFileSpec{field: "avatar", name: "a.png", content: []byte("a")})
	expectStatus(t, env.serve(req), http.StatusBadRequest)

	req = env.multipartRequest(http.MethodPost, "/api/v1/users/register", "",
		map[string]string{"username": "bob", "email": "not-an-email", "fullname": "Bob", "password": "pw"},
		formFileSpec{field: "avatar", name: "a.png", content: []byte("a")})
	expectStatus(t, env.serve(req), http.StatusBadRequest)
}

func TestUserLoginSetsCookies(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("alice", "password123")

	rec := env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Email: "ALICE@example.com", Password: "password123"})
	var resp loginResponse
	decodeData(t, expectRecorder(t, rec, http.StatusOK), &resp)
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.User.Username != "alice" {
		t.Fatalf("unexpected login response %+v", resp)
	}

	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		c := cookieNamed(rec, name)
		if c == nil {
			t.Fatalf("expected %s cookie", name)
		}
		if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
			t.Fatalf("unexpected cookie attributes %+v", c)
		}
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("response must not expose the password hash")
	}

	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Username: "alice", Password: "wrong"}), http.StatusUnauthorized)
	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Username: "nobody", Password: "x"}), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Password: "x"}), http.StatusBadRequest)
}

func TestUserRefreshRotatesAndRejectsSupersededToken(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("alice", "password123")

	var login loginResponse
	decodeData(t, env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Username: "alice", Password: "password123"}), &login)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: login.RefreshToken})
	rec := env.serve(req)
	var rotated models.TokenPair
	decodeData(t, expectRecorder(t, rec, http.StatusOK), &rotated)
	if rotated.RefreshToken == "" || rotated.RefreshToken == login.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if cookieNamed(rec, refreshTokenCookie) == nil {
		t.Fatal("expected refresh cookie to be rotated")
	}

	resp := expectStatus(t, env.do(http.MethodPost, "/api/v1/users/refresh-token", "", refreshRequest{RefreshToken: login.RefreshToken}), http.StatusUnauthorized)
	if resp.Message != "Refresh token is expired or used" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.Header.Set(refreshTokenHeader, rotated.RefreshToken)
	expectStatus(t, env.serve(req), http.StatusOK)

	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/refresh-token", "", nil), http.StatusUnauthorized)
}

func TestUserLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.signUp("alice", "password123")

	var login loginResponse
	decodeData(t, env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Username: "alice", Password: "password123"}), &login)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: login.AccessToken})
	rec := expectRecorder(t, env.serve(req), http.StatusOK)
	if c := cookieNamed(rec, accessTokenCookie); c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected access cookie to be cleared, got %+v", c)
	}

	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/refresh-token", "", refreshRequest{RefreshToken: login.RefreshToken}), http.StatusUnauthorized)
}

func TestUserChangePasswordAndAccount(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	env.signUp("bob", "password123")

	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/change-password", alice.token, changePasswordRequest{OldPassword: "nope", NewPassword: "next"}), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/change-password", alice.token, changePasswordRequest{OldPassword: "password123", NewPassword: "next-password"}), http.StatusOK)
	expectStatus(t, env.do(http.MethodPost, "/api/v1/users/login", "", loginRequest{Username: "alice", Password: "next-password"}), http.StatusOK)

	var updated models.User
	decodeData(t, env.do(http.MethodPatch, "/api/v1/users/update-account", alice.token, updateAccountRequest{Fullname: "Alice Updated"}), &updated)
	if updated.Fullname != "Alice Updated" || updated.Email != "alice@example.com" {
		t.Fatalf("expected only fullname to change, got %+v", updated)
	}

	expectStatus(t, env.do(http.MethodPatch, "/api/v1/users/update-account", alice.token, updateAccountRequest{}), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPatch, "/api/v1/users/update-account", alice.token, updateAccountRequest{Email: "bob@example.com"}), http.StatusConflict)

	var current models.User
	decodeData(t, env.do(http.MethodGet, "/api/v1/users/current-user", alice.token, nil), &current)
	if current.ID != alice.user.ID {
		t.Fatalf("unexpected current user %+v", current)
	}
}

func TestUserAvatarReplacement(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")

	req := env.multipartRequest(http.MethodPatch, "/api/v1/users/avatar", alice.token, nil,
		formFileSpec{field: "avatar", name: "new.png", content: []byte("img")})
	var user models.User
	decodeData(t, expectRecorder(t, env.serve(req), http.StatusOK), &user)
	if user.Avatar != "https://cdn.test/avatars/new.png" {
		t.Fatalf("unexpected avatar %q", user.Avatar)
	}
	if env.mem.hasAsset("avatars/alice") {
		t.Fatal("expected old avatar to be deleted")
	}

	env.mem.failDelete = true
	req = env.multipartRequest(http.MethodPatch, "/api/v1/users/avatar", alice.token, nil,
		formFileSpec{field: "avatar", name: "newer.png", content: []byte("img")})
	expectStatus(t, env.serve(req), http.StatusInternalServerError)

	stored, _ := (memUsers{env.mem}).FindByID(context.Background(), alice.user.ID)
	if stored.AvatarID != "avatars/newer.png" {
		t.Fatalf("expected new avatar to stay committed, got %q", stored.AvatarID)
	}

	req = env.multipartRequest(http.MethodPatch, "/api/v1/users/cover-image", alice.token, nil)
	expectStatus(t, env.serve(req), http.StatusBadRequest)
}

func TestChannelProfileReflectsSubscription(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")

	var profile models.ChannelProfile
	decodeData(t, env.do(http.MethodGet, "/api/v1/users/c/bob", alice.token, nil), &profile)
	if profile.IsSubscribed || profile.SubscribersCount != 0 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	expectStatus(t, env.do(http.MethodPost, "/api/v1/subscriptions/c/"+bob.user.ID, alice.token, nil), http.StatusOK)

	decodeData(t, env.do(http.MethodGet, "/api/v1/users/c/BOB", alice.token, nil), &profile)
	if !profile.IsSubscribed || profile.SubscribersCount != 1 {
		t.Fatalf("expected viewer to be subscribed, got %+v", profile)
	}

	decodeData(t, env.do(http.MethodGet, "/api/v1/users/c/bob", bob.token, nil), &profile)
	if profile.IsSubscribed {
		t.Fatal("expected isSubscribed to be false for a viewer without a subscription")
	}

	expectStatus(t, env.do(http.MethodGet, "/api/v1/users/c/nobody", alice.token, nil), http.StatusNotFound)
}
