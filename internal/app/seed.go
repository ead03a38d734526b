package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// fakePassword is shared by every seeded account so they can log in.
const fakePassword = "password123"

const (
	fakeVideosPerUser   = 3
	fakeTweetsPerUser   = 2
	fakeCommentsPerUser = 4
	fakeLikesPerUser    = 5
)

type seedStores struct {
	Users         repositories.UserRepository
	Videos        repositories.VideoRepository
	Comments      repositories.CommentRepository
	Tweets        repositories.TweetRepository
	Likes         repositories.LikeRepository
	Subscriptions repositories.SubscriptionRepository
}

func postgresSeedStores(pool db.Pool) seedStores {
	return seedStores{
		Users:         repositories.NewPostgresUserRepository(pool),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
	}
}

type seedSummary struct {
	Users         int
	Videos        int
	Comments      int
	Tweets        int
	Likes         int
	Subscriptions int
}

type fakeSeeder struct {
	stores seedStores
	faker  *gofakeit.Faker
	now    func() time.Time
}

func newFakeSeeder(stores seedStores, seed int64) *fakeSeeder {
	return &fakeSeeder{stores: stores, faker: gofakeit.New(seed), now: time.Now}
}

// Seed creates count users, each with published videos and tweets, then
// cross-links them with comments, likes and subscriptions.
func (s *fakeSeeder) Seed(ctx context.Context, count int) (seedSummary, error) {
	logger := logging.FromContext(ctx)
	var summary seedSummary

	hashed, err := bcrypt.GenerateFromPassword([]byte(fakePassword), bcrypt.DefaultCost)
	if err != nil {
		return summary, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := s.user(i, string(hashed))
		if err := s.stores.Users.Create(ctx, user); err != nil {
			return summary, fmt.Errorf("seed user %s: %w", user.Username, err)
		}
		users = append(users, user)
		summary.Users++
	}

	var videos []models.Video
	for _, user := range users {
		for i := 0; i < fakeVideosPerUser; i++ {
			video := s.video(user.ID)
			if err := s.stores.Videos.Create(ctx, video); err != nil {
				return summary, fmt.Errorf("seed video: %w", err)
			}
			videos = append(videos, video)
			summary.Videos++
		}
		for i := 0; i < fakeTweetsPerUser; i++ {
			now := s.now()
			tweet := models.Tweet{ID: uuid.NewString(), Content: s.faker.Sentence(12), OwnerID: user.ID, CreatedAt: now, UpdatedAt: now}
			if err := s.stores.Tweets.Create(ctx, tweet); err != nil {
				return summary, fmt.Errorf("seed tweet: %w", err)
			}
			summary.Tweets++
		}
	}

	if len(videos) == 0 {
		return summary, nil
	}

	for _, user := range users {
		for i := 0; i < fakeCommentsPerUser; i++ {
			video := videos[s.faker.Number(0, len(videos)-1)]
			now := s.now()
			comment := models.Comment{ID: uuid.NewString(), Content: s.faker.Sentence(8), VideoID: video.ID, OwnerID: user.ID, CreatedAt: now, UpdatedAt: now}
			if err := s.stores.Comments.Create(ctx, comment); err != nil {
				return summary, fmt.Errorf("seed comment: %w", err)
			}
			summary.Comments++
		}

		liked := map[string]bool{}
		for i := 0; i < fakeLikesPerUser; i++ {
			video := videos[s.faker.Number(0, len(videos)-1)]
			if liked[video.ID] {
				continue
			}
			liked[video.ID] = true
			if _, err := s.stores.Likes.Toggle(ctx, models.LikeTarget{Kind: models.LikeVideo, ID: video.ID}, user.ID); err != nil {
				return summary, fmt.Errorf("seed like: %w", err)
			}
			summary.Likes++
		}

		for _, channel := range users {
			if channel.ID == user.ID || !s.faker.Bool() {
				continue
			}
			if _, err := s.stores.Subscriptions.Toggle(ctx, user.ID, channel.ID); err != nil {
				return summary, fmt.Errorf("seed subscription: %w", err)
			}
			summary.Subscriptions++
		}
	}

	logger.Info("fake data seeded",
		"users", summary.Users,
		"videos", summary.Videos,
		"comments", summary.Comments,
		"tweets", summary.Tweets,
	)
	return summary, nil
}

func (s *fakeSeeder) user(i int, passwordHash string) models.User {
	username := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i)
	now := s.now()
	return models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@" + strings.ToLower(s.faker.DomainName()),
		Fullname:  s.faker.Name(),
		Avatar:    s.faker.ImageURL(200, 200),
		AvatarID:  "seed/avatars/" + username,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *fakeSeeder) video(ownerID string) models.Video {
	id := uuid.NewString()
	now := s.now()
	return models.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       strings.TrimSuffix(s.faker.Sentence(4), "."),
		Description: s.faker.Paragraph(1, 3, 12, " "),
		VideoFile:   s.faker.URL(),
		VideoFileID: "seed/videos/" + id,
		Thumbnail:   s.faker.ImageURL(640, 360),
		ThumbnailID: "seed/thumbnails/" + id,
		Duration:    s.faker.Float64Range(5, 900),
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
