package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"sort"
	"strings"
	"sync"

	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pipeline"
	"github.com/vidtube/backend/internal/readmodels"
	"github.com/vidtube/backend/internal/repositories"
)

// memory is an in-process stand-in for the database and object store.
type memory struct {
	mu            sync.Mutex
	users         map[string]models.User
	videos        map[string]models.Video
	history       map[string][]string
	comments      map[string]models.Comment
	tweets        map[string]models.Tweet
	playlists     map[string]models.Playlist
	likes         map[models.LikeTarget]map[string]bool
	subscriptions map[string]map[string]bool
	assets        map[string]bool
	failDelete    bool
	pingErr       error
}

func newMemory() *memory {
	return &memory{
		users:         map[string]models.User{},
		videos:        map[string]models.Video{},
		history:       map[string][]string{},
		comments:      map[string]models.Comment{},
		tweets:        map[string]models.Tweet{},
		playlists:     map[string]models.Playlist{},
		likes:         map[models.LikeTarget]map[string]bool{},
		subscriptions: map[string]map[string]bool{},
		assets:        map[string]bool{},
	}
}

func (m *memory) Ping(context.Context) error { return m.pingErr }

type memUsers struct{ *memory }

func (s memUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s memUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s memUsers) UpdateDetails(_ context.Context, id, fullname, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for _, other := range s.users {
		if other.ID != id && other.Email == email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.Fullname, user.Email = fullname, email
	s.users[id] = user
	return user, nil
}

func (s memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = hash
	s.users[id] = user
	return nil
}

func (s memUsers) UpdateAvatar(_ context.Context, id string, asset models.Asset) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.Asset{}, repositories.ErrNotFound
	}
	previous := models.Asset{PublicID: user.AvatarID, URL: user.Avatar}
	user.AvatarID, user.Avatar = asset.PublicID, asset.URL
	s.users[id] = user
	return previous, nil
}

func (s memUsers) UpdateCoverImage(_ context.Context, id string, asset models.Asset) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.Asset{}, repositories.ErrNotFound
	}
	previous := models.Asset{PublicID: user.CoverImageID, URL: user.CoverImage}
	user.CoverImageID, user.CoverImage = asset.PublicID, asset.URL
	s.users[id] = user
	return previous, nil
}

type memVideos struct{ *memory }

func (s memVideos) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s memVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s memVideos) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s memVideos) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	for user, ids := range s.history {
		kept := ids[:0]
		for _, v := range ids {
			if v != id {
				kept = append(kept, v)
			}
		}
		s.history[user] = kept
	}
	return nil
}

func (s memVideos) SetPublished(_ context.Context, id string, published bool) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = published
	s.videos[id] = video
	return video, nil
}

func (s memVideos) RegisterView(_ context.Context, videoID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.history[userID] {
		if id == videoID {
			return false, nil
		}
	}
	s.history[userID] = append(s.history[userID], videoID)
	video := s.videos[videoID]
	video.Views++
	s.videos[videoID] = video
	return true, nil
}

type memComments struct{ *memory }

func (s memComments) Create(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.ID] = c
	return nil
}

func (s memComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return c, nil
}

func (s memComments) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	c.Content = content
	s.comments[id] = c
	return c, nil
}

func (s memComments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, id)
	return nil
}

type memTweets struct{ *memory }

func (s memTweets) Create(_ context.Context, t models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweets[t.ID] = t
	return nil
}

func (s memTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return t, nil
}

func (s memTweets) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	t.Content = content
	s.tweets[id] = t
	return t, nil
}

func (s memTweets) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tweets, id)
	return nil
}

type memPlaylists struct{ *memory }

func (s memPlaylists) Create(_ context.Context, p models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[p.ID] = p
	return nil
}

func (s memPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p.Videos = append([]string{}, p.Videos...)
	return p, nil
}

func (s memPlaylists) Update(_ context.Context, id, name, description string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p.Name, p.Description = name, description
	s.playlists[id] = p
	return p, nil
}

func (s memPlaylists) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playlists, id)
	return nil
}

func (s memPlaylists) AddVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playlists[playlistID]
	p.Videos = append(p.Videos, videoID)
	s.playlists[playlistID] = p
	return nil
}

func (s memPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playlists[playlistID]
	kept := []string{}
	for _, id := range p.Videos {
		if id != videoID {
			kept = append(kept, id)
		}
	}
	p.Videos = kept
	s.playlists[playlistID] = p
	return nil
}

type memLikes struct{ *memory }

func (s memLikes) Toggle(_ context.Context, target models.LikeTarget, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.likes[target] == nil {
		s.likes[target] = map[string]bool{}
	}
	if s.likes[target][userID] {
		delete(s.likes[target], userID)
		return false, nil
	}
	s.likes[target][userID] = true
	return true, nil
}

func (m *memory) liked(target models.LikeTarget, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.likes[target][userID]
}

type memSubscriptions struct{ *memory }

func (s memSubscriptions) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscriptions[channelID] == nil {
		s.subscriptions[channelID] = map[string]bool{}
	}
	if s.subscriptions[channelID][subscriberID] {
		delete(s.subscriptions[channelID], subscriberID)
		return false, nil
	}
	s.subscriptions[channelID][subscriberID] = true
	return true, nil
}

type memMedia struct{ *memory }

func (s memMedia) Store(_ context.Context, kind media.Kind, file *multipart.FileHeader) (media.Upload, error) {
	if file == nil || file.Size == 0 {
		return media.Upload{}, media.ErrEmptyFile
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := string(kind) + "/" + file.Filename
	s.assets[id] = true
	upload := media.Upload{Asset: models.Asset{PublicID: id, URL: "https://cdn.test/" + id}}
	if kind == media.KindVideo {
		upload.Duration = 12.5
	}
	return upload, nil
}

func (s memMedia) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errors.New("object store unavailable")
	}
	delete(s.assets, publicID)
	return nil
}

func (m *memory) hasAsset(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assets[id]
}

// memReader answers read models from the in-memory state.
type memReader struct{ *memory }

func (s memReader) summary(id string) *models.UserSummary {
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	return &models.UserSummary{ID: user.ID, Username: user.Username, Fullname: user.Fullname, Email: user.Email, Avatar: user.Avatar}
}

func (s memReader) view(v models.Video) models.VideoView {
	return models.VideoView{
		ID: v.ID, Title: v.Title, Description: v.Description, VideoFile: v.VideoFile, Thumbnail: v.Thumbnail,
		Duration: v.Duration, Views: v.Views, IsPublished: v.IsPublished, CreatedAt: v.CreatedAt, Owner: s.summary(v.OwnerID),
	}
}

func (s memReader) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username != username {
			continue
		}
		var subscribedTo int64
		for _, subs := range s.subscriptions {
			if subs[user.ID] {
				subscribedTo++
			}
		}
		return models.ChannelProfile{
			ID: user.ID, Username: user.Username, Fullname: user.Fullname, Email: user.Email, Avatar: user.Avatar,
			SubscribersCount:          int64(len(s.subscriptions[user.ID])),
			ChannelsSubscribedToCount: subscribedTo,
			IsSubscribed:              s.subscriptions[user.ID][viewerID],
		}, nil
	}
	return models.ChannelProfile{}, readmodels.ErrNotFound
}

func (s memReader) ChannelStats(_ context.Context, userID string) (models.ChannelStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return models.ChannelStats{}, readmodels.ErrNotFound
	}
	stats := models.ChannelStats{ID: user.ID, Username: user.Username, Email: user.Email, Fullname: user.Fullname}
	for _, v := range s.videos {
		if v.OwnerID == userID {
			stats.TotalVideos++
			stats.TotalViews += v.Views
			stats.TotalLikes.VideoLikes += int64(len(s.likes[models.LikeTarget{Kind: models.LikeVideo, ID: v.ID}]))
		}
	}
	stats.Subscribers = int64(len(s.subscriptions[userID]))
	stats.TotalLikes.Total = stats.TotalLikes.VideoLikes
	return stats, nil
}

func (s memReader) ChannelVideos(_ context.Context, userID string) ([]models.VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.VideoView{}
	for _, v := range s.videos {
		if v.OwnerID == userID {
			out = append(out, s.view(v))
		}
	}
	return out, nil
}

func (s memReader) WatchHistory(_ context.Context, userID string) ([]models.VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.VideoView{}
	for _, id := range s.history[userID] {
		if v, ok := s.videos[id]; ok {
			out = append(out, s.view(v))
		}
	}
	return out, nil
}

func (s memReader) VideoDetail(_ context.Context, videoID string) (models.VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return models.VideoView{}, readmodels.ErrNotFound
	}
	return s.view(v), nil
}

func pageOf[T any](items []T, p pipeline.Page, labels pipeline.Labels) (pipeline.PageResult, error) {
	docs := []json.RawMessage{}
	for i := p.Offset(); i < len(items) && i < p.Offset()+p.Limit; i++ {
		raw, err := json.Marshal(items[i])
		if err != nil {
			return pipeline.PageResult{}, err
		}
		docs = append(docs, raw)
	}
	return pipeline.NewPageResult(docs, int64(len(items)), p, labels), nil
}

func (s memReader) Videos(_ context.Context, f readmodels.VideoFilter, p pipeline.Page) (pipeline.PageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := strings.ToLower(f.Query)
	out := []models.VideoView{}
	for _, v := range s.videos {
		if !v.IsPublished || (f.OwnerID != "" && v.OwnerID != f.OwnerID) {
			continue
		}
		if !strings.Contains(strings.ToLower(v.Title), query) && !strings.Contains(strings.ToLower(v.Description), query) {
			continue
		}
		out = append(out, s.view(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageOf(out, p, readmodels.VideoLabels)
}

func (s memReader) VideoComments(_ context.Context, videoID string, p pipeline.Page) (pipeline.PageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.CommentView{}
	for _, c := range s.comments {
		if c.VideoID == videoID {
			out = append(out, models.CommentView{ID: c.ID, Content: c.Content, Video: c.VideoID, CreatedAt: c.CreatedAt, Owner: s.summary(c.OwnerID)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return pageOf(out, p, readmodels.CommentLabels)
}

func (s memReader) UserTweets(_ context.Context, userID string, p pipeline.Page) (pipeline.PageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TweetView{}
	for _, t := range s.tweets {
		if t.OwnerID == userID {
			out = append(out, models.TweetView{ID: t.ID, Content: t.Content, CreatedAt: t.CreatedAt, Owner: s.summary(t.OwnerID)})
		}
	}
	return pageOf(out, p, readmodels.TweetLabels)
}

func (s memReader) LikedVideos(_ context.Context, userID string) ([]models.LikedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.LikedVideo{}
	for target, users := range s.likes {
		if target.Kind != models.LikeVideo || !users[userID] {
			continue
		}
		if v, ok := s.videos[target.ID]; ok {
			out = append(out, models.LikedVideo{ID: v.ID, Title: v.Title, Owner: s.summary(v.OwnerID)})
		}
	}
	return out, nil
}

func (s memReader) playlistView(p models.Playlist) models.PlaylistView {
	view := models.PlaylistView{ID: p.ID, Name: p.Name, Description: p.Description, Owner: p.OwnerID, Videos: []models.PlaylistVideo{}}
	for _, id := range p.Videos {
		if v, ok := s.videos[id]; ok {
			view.Videos = append(view.Videos, models.PlaylistVideo{ID: v.ID, Title: v.Title, VideoOwner: s.summary(v.OwnerID)})
		}
	}
	view.TotalVideos = int64(len(view.Videos))
	return view
}

func (s memReader) UserPlaylists(_ context.Context, userID string) ([]models.PlaylistView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PlaylistView{}
	for _, p := range s.playlists {
		if p.OwnerID == userID {
			out = append(out, s.playlistView(p))
		}
	}
	return out, nil
}

func (s memReader) PlaylistDetail(_ context.Context, playlistID string) (models.PlaylistView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[playlistID]
	if !ok {
		return models.PlaylistView{}, readmodels.ErrNotFound
	}
	view := s.playlistView(p)
	view.PlaylistOwner = s.summary(p.OwnerID)
	view.Owner = ""
	return view, nil
}

func (s memReader) ChannelSubscribers(_ context.Context, channelID string) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.UserSummary{}
	for id := range s.subscriptions[channelID] {
		if u := s.summary(id); u != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s memReader) SubscribedChannels(_ context.Context, subscriberID string) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.UserSummary{}
	for channel, subs := range s.subscriptions {
		if subs[subscriberID] {
			if u := s.summary(channel); u != nil {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}
