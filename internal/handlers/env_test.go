package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type testEnv struct {
	t       *testing.T
	mem     *memory
	manager *auth.Manager
	router  http.Handler
	metrics *middleware.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith lets a test adjust the router dependencies before wiring.
func newTestEnvWith(t *testing.T, configure func(*Dependencies)) *testEnv {
	t.Helper()
	mem := newMemory()
	signer := auth.NewSigner("access-secret", "refresh-secret", time.Minute, time.Hour)
	manager := auth.NewManager(signer, auth.NewInMemorySessionStore(), repositories.SessionUsers(memUsers{mem}))
	metrics := middleware.NewMetrics()

	deps := Dependencies{
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		DB:             mem,
		Users:          memUsers{mem},
		Sessions:       manager,
		Media:          memMedia{mem},
		Videos:         memVideos{mem},
		Comments:       memComments{mem},
		Tweets:         memTweets{mem},
		Playlists:      memPlaylists{mem},
		Likes:          memLikes{mem},
		Subscriptions:  memSubscriptions{mem},
		Reader:         memReader{mem},
		Metrics:        metrics,
		MaxUploadBytes: 10 << 20,
		Started:        time.Now(),
	}
	if configure != nil {
		configure(&deps)
	}
	router := NewRouter(deps)

	return &testEnv{t: t, mem: mem, manager: manager, router: router, metrics: metrics}
}

type session struct {
	user  models.User
	token string
}

// signUp stores a user directly and issues it a token pair.
func (e *testEnv) signUp(username, password string) session {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		Fullname: username,
		Avatar:   "https://cdn.test/avatars/" + username,
		AvatarID: "avatars/" + username,
		Password: string(hashed),
	}
	if err := (memUsers{e.mem}).Create(context.Background(), user); err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	e.mem.assets[user.AvatarID] = true

	tokens, err := e.manager.Issue(context.Background(), user)
	if err != nil {
		e.t.Fatalf("issue tokens: %v", err)
	}
	return session{user: user, token: tokens.AccessToken}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// do sends a JSON request, authenticated when token is set.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(req)
}

type formFileSpec struct {
	field, name string
	content     []byte
}

// multipartRequest builds a multipart request with fields and files.
func (e *testEnv) multipartRequest(method, path, token string, fields map[string]string, files ...formFileSpec) *http.Request {
	e.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			e.t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			e.t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(f.content); err != nil {
			e.t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		e.t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// publishVideo uploads a video through the API and returns its id.
func (e *testEnv) publishVideo(s session, title, description string) string {
	e.t.Helper()
	req := e.multipartRequest(http.MethodPost, "/api/v1/videos", s.token,
		map[string]string{"title": title, "description": description},
		formFileSpec{field: "videoFile", name: title + ".mp4", content: []byte("video-bytes")},
		formFileSpec{field: "thumbnail", name: title + ".png", content: []byte("thumb-bytes")},
	)
	rec := e.serve(req)
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("publish video: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var video models.Video
	decodeData(e.t, rec, &video)
	return video.ID
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if env.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response status %d", env.StatusCode, rec.Code)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, dest); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(env.Data))
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, rec.Code, rec.Body.String())
	}
	return decodeEnvelope(t, rec)
}

func expectRecorder(t *testing.T, rec *httptest.ResponseRecorder, status int) *httptest.ResponseRecorder {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d got %d: %s", status, rec.Code, rec.Body.String())
	}
	return rec
}
