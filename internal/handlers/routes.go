package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger        *slog.Logger
	DB            Pinger
	Users         UserStore
	Sessions      SessionManager
	Media         MediaStore
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Playlists     PlaylistStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Reader        ReadModels
	Metrics       *middleware.Metrics
	AuthLimiter   middleware.RateLimiter

	CORSOrigins    []string
	Cookies        CookieOptions
	MaxUploadBytes int64
	Started        time.Time
}

// NewRouter wires every endpoint under /api/v1 plus /metrics.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{DB: deps.DB, Started: deps.Started}
	users := UserHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Reader:         deps.Reader,
		Cookies:        deps.Cookies,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	videos := VideoHandler{Videos: deps.Videos, Media: deps.Media, Reader: deps.Reader, MaxUploadBytes: deps.MaxUploadBytes}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Reader: deps.Reader}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments, Tweets: deps.Tweets, Reader: deps.Reader}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users, Reader: deps.Reader}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Users: deps.Users, Reader: deps.Reader}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, Reader: deps.Reader}
	dashboard := DashboardHandler{Reader: deps.Reader}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader, refreshTokenHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(r.Context(), w, api.NotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(r.Context(), w, &api.Error{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
	})

	secured := middleware.RequireUser(deps.Sessions, deps.Users)
	limited := middleware.Limit(deps.AuthLimiter, "auth")

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", health.Handle)

		r.Route("/users", func(r chi.Router) {
			r.With(limited).Post("/register", wrap(users.Register))
			r.With(limited).Post("/login", wrap(users.Login))
			r.With(limited).Post("/refresh-token", wrap(users.RefreshToken))

			r.Group(func(r chi.Router) {
				r.Use(secured)
				r.Post("/logout", wrap(users.Logout))
				r.Post("/change-password", wrap(users.ChangePassword))
				r.Get("/current-user", wrap(users.CurrentUser))
				r.Patch("/update-account", wrap(users.UpdateAccount))
				r.Patch("/avatar", wrap(users.UpdateAvatar))
				r.Patch("/cover-image", wrap(users.UpdateCoverImage))
				r.Get("/c/{username}", wrap(users.ChannelProfile))
				r.Get("/history", wrap(users.WatchHistory))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(secured)

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", wrap(videos.List))
				r.Post("/", wrap(videos.Publish))
				r.Get("/{videoId}", wrap(videos.Get))
				r.Patch("/{videoId}", wrap(videos.Update))
				r.Delete("/{videoId}", wrap(videos.Delete))
				r.Patch("/{videoId}/toggle-publish", wrap(videos.TogglePublish))
				r.Patch("/toggle/publish/{videoId}", wrap(videos.TogglePublish))
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/{videoId}", wrap(comments.List))
				r.Post("/{videoId}", wrap(comments.Add))
				r.Patch("/c/{commentId}", wrap(comments.Update))
				r.Delete("/c/{commentId}", wrap(comments.Delete))
			})

			r.Route("/likes", func(r chi.Router) {
				r.Post("/toggle/v/{videoId}", wrap(likes.ToggleVideo))
				r.Post("/toggle/c/{commentId}", wrap(likes.ToggleComment))
				r.Post("/toggle/t/{tweetId}", wrap(likes.ToggleTweet))
				r.Get("/videos", wrap(likes.LikedVideos))
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/c/{channelId}", wrap(subscriptions.Toggle))
				r.Get("/c/{channelId}", wrap(subscriptions.Subscribers))
				r.Get("/u/{subscriberId}", wrap(subscriptions.SubscribedChannels))
			})

			r.Route("/playlist", func(r chi.Router) {
				r.Post("/", wrap(playlists.Create))
				r.Get("/user/{userId}", wrap(playlists.ListByUser))
				r.Patch("/add/{videoId}/{playlistId}", wrap(playlists.AddVideo))
				r.Patch("/remove/{videoId}/{playlistId}", wrap(playlists.RemoveVideo))
				r.Get("/{playlistId}", wrap(playlists.Get))
				r.Patch("/{playlistId}", wrap(playlists.Update))
				r.Delete("/{playlistId}", wrap(playlists.Delete))
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Post("/", wrap(tweets.Create))
				r.Get("/user/{userId}", wrap(tweets.ListByUser))
				r.Patch("/{tweetId}", wrap(tweets.Update))
				r.Delete("/{tweetId}", wrap(tweets.Delete))
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", wrap(dashboard.Stats))
				r.Get("/videos", wrap(dashboard.Videos))
			})
		})
	})

	return r
}
