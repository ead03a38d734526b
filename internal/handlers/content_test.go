package handlers

import (
	"net/http"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

type commentPage struct {
	Comments      []models.CommentView `json:"comments"`
	TotalComments int64                `json:"totalComments"`
	Limit         int                  `json:"limit"`
}

func TestCommentOwnershipAndValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")
	videoID := env.publishVideo(alice, "V", "video")

	var comment models.Comment
	decodeData(t, expectRecorder(t, env.do(http.MethodPost, "/api/v1/comments/"+videoID, alice.token, contentRequest{Content: "first"}), http.StatusCreated), &comment)

	path := "/api/v1/comments/c/" + comment.ID
	expectStatus(t, env.do(http.MethodPatch, path, bob.token, contentRequest{Content: "X"}), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodPatch, path, alice.token, contentRequest{Content: "  "}), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPatch, path, alice.token, contentRequest{Content: "X"}), http.StatusOK)

	var page commentPage
	decodeData(t, env.do(http.MethodGet, "/api/v1/comments/"+videoID, bob.token, nil), &page)
	if page.TotalComments != 1 || page.Comments[0].Content != "X" || page.Limit != commentPageSize {
		t.Fatalf("expected updated comment in listing, got %+v", page)
	}
	if page.Comments[0].Owner == nil || page.Comments[0].Owner.Username != "alice" {
		t.Fatalf("expected comment owner to be joined, got %+v", page.Comments[0].Owner)
	}

	expectStatus(t, env.do(http.MethodDelete, path, bob.token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodDelete, path, alice.token, nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodPatch, path, alice.token, contentRequest{Content: "X"}), http.StatusNotFound)

	resp := decodeData(t, env.do(http.MethodGet, "/api/v1/comments/"+videoID, bob.token, nil), &page)
	if resp.Message != "No comments found" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestCommentOnMissingVideo(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")

	expectStatus(t, env.do(http.MethodPost, "/api/v1/comments/00000000-0000-0000-0000-000000000001", alice.token, contentRequest{Content: "hi"}), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodPost, "/api/v1/comments/oops", alice.token, contentRequest{Content: "hi"}), http.StatusBadRequest)
}

func TestLikeToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")
	videoID := env.publishVideo(alice, "V", "video")
	target := models.LikeTarget{Kind: models.LikeVideo, ID: videoID}

	var result likeResult
	decodeData(t, env.do(http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, bob.token, nil), &result)
	if !result.IsLiked || !env.mem.liked(target, bob.user.ID) {
		t.Fatal("expected first toggle to add the like")
	}

	var liked []models.LikedVideo
	decodeData(t, env.do(http.MethodGet, "/api/v1/likes/videos", bob.token, nil), &liked)
	if len(liked) != 1 || liked[0].ID != videoID {
		t.Fatalf("expected liked video listing, got %+v", liked)
	}

	decodeData(t, env.do(http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, bob.token, nil), &result)
	if result.IsLiked || env.mem.liked(target, bob.user.ID) {
		t.Fatal("expected second toggle to remove the like")
	}

	expectStatus(t, env.do(http.MethodPost, "/api/v1/likes/toggle/t/00000000-0000-0000-0000-000000000001", bob.token, nil), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodPost, "/api/v1/likes/toggle/c/bad", bob.token, nil), http.StatusBadRequest)
}

func TestLikeCommentAndTweet(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	videoID := env.publishVideo(alice, "V", "video")

	var comment models.Comment
	decodeData(t, env.do(http.MethodPost, "/api/v1/comments/"+videoID, alice.token, contentRequest{Content: "c"}), &comment)
	var tweet models.Tweet
	decodeData(t, env.do(http.MethodPost, "/api/v1/tweets", alice.token, contentRequest{Content: "t"}), &tweet)

	resp := expectStatus(t, env.do(http.MethodPost, "/api/v1/likes/toggle/c/"+comment.ID, alice.token, nil), http.StatusOK)
	if resp.Message != "Comment liked" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	resp = expectStatus(t, env.do(http.MethodPost, "/api/v1/likes/toggle/t/"+tweet.ID, alice.token, nil), http.StatusOK)
	if resp.Message != "Tweet liked" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestSubscriptionToggleAndLists(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")

	var result subscriptionResult
	decodeData(t, env.do(http.MethodPost, "/api/v1/subscriptions/c/"+bob.user.ID, alice.token, nil), &result)
	if !result.Subscribed {
		t.Fatal("expected subscription to be added")
	}

	var subscribers []models.UserSummary
	decodeData(t, env.do(http.MethodGet, "/api/v1/subscriptions/c/"+bob.user.ID, alice.token, nil), &subscribers)
	if len(subscribers) != 1 || subscribers[0].ID != alice.user.ID {
		t.Fatalf("unexpected subscribers %+v", subscribers)
	}

	var channels []models.UserSummary
	decodeData(t, env.do(http.MethodGet, "/api/v1/subscriptions/u/"+alice.user.ID, alice.token, nil), &channels)
	if len(channels) != 1 || channels[0].ID != bob.user.ID {
		t.Fatalf("unexpected channels %+v", channels)
	}

	decodeData(t, env.do(http.MethodPost, "/api/v1/subscriptions/c/"+bob.user.ID, alice.token, nil), &result)
	if result.Subscribed {
		t.Fatal("expected second toggle to unsubscribe")
	}

	expectStatus(t, env.do(http.MethodPost, "/api/v1/subscriptions/c/00000000-0000-0000-0000-000000000001", alice.token, nil), http.StatusNotFound)
}

type tweetPage struct {
	Tweets     []models.TweetView `json:"Tweets"`
	TweetCount int64              `json:"TweetCount"`
}

func TestTweetLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")

	expectStatus(t, env.do(http.MethodPost, "/api/v1/tweets", alice.token, contentRequest{}), http.StatusBadRequest)

	var tweet models.Tweet
	decodeData(t, expectRecorder(t, env.do(http.MethodPost, "/api/v1/tweets", alice.token, contentRequest{Content: "hello"}), http.StatusCreated), &tweet)

	var page tweetPage
	decodeData(t, env.do(http.MethodGet, "/api/v1/tweets/user/"+alice.user.ID, bob.token, nil), &page)
	if page.TweetCount != 1 || page.Tweets[0].Content != "hello" {
		t.Fatalf("unexpected tweets %+v", page)
	}

	expectStatus(t, env.do(http.MethodPatch, "/api/v1/tweets/"+tweet.ID, bob.token, contentRequest{Content: "x"}), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodPatch, "/api/v1/tweets/"+tweet.ID, alice.token, contentRequest{Content: "edited"}), http.StatusOK)
	expectStatus(t, env.do(http.MethodDelete, "/api/v1/tweets/"+tweet.ID, bob.token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodDelete, "/api/v1/tweets/"+tweet.ID, alice.token, nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/api/v1/tweets/user/00000000-0000-0000-0000-000000000001", bob.token, nil), http.StatusNotFound)
}

func TestPlaylistMembership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")
	first := env.publishVideo(alice, "one", "1")
	second := env.publishVideo(bob, "two", "2")

	expectStatus(t, env.do(http.MethodPost, "/api/v1/playlist", alice.token, playlistRequest{Name: "mix"}), http.StatusBadRequest)

	var playlist models.Playlist
	decodeData(t, expectRecorder(t, env.do(http.MethodPost, "/api/v1/playlist", alice.token, playlistRequest{Name: "mix", Description: "favourites"}), http.StatusCreated), &playlist)

	add := func(videoID, token string) envelope {
		return decodeEnvelope(t, env.do(http.MethodPatch, "/api/v1/playlist/add/"+videoID+"/"+playlist.ID, token, nil))
	}
	if resp := add(first, alice.token); resp.StatusCode != http.StatusOK {
		t.Fatalf("add first: %+v", resp)
	}
	if resp := add(second, alice.token); resp.StatusCode != http.StatusOK {
		t.Fatalf("add second: %+v", resp)
	}
	if resp := add(first, alice.token); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected duplicate add to fail, got %+v", resp)
	}
	if resp := add(first, bob.token); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected non-owner add to fail, got %+v", resp)
	}

	expectStatus(t, env.do(http.MethodDelete, "/api/v1/videos/"+second, bob.token, nil), http.StatusOK)

	var detail models.PlaylistView
	decodeData(t, env.do(http.MethodGet, "/api/v1/playlist/"+playlist.ID, bob.token, nil), &detail)
	if detail.TotalVideos != 1 || len(detail.Videos) != 1 || detail.Videos[0].ID != first {
		t.Fatalf("expected stale video to be excluded, got %+v", detail)
	}
	if detail.PlaylistOwner == nil || detail.PlaylistOwner.ID != alice.user.ID || detail.Owner != "" {
		t.Fatalf("expected playlist owner to be joined, got %+v", detail)
	}

	var updated models.Playlist
	decodeData(t, env.do(http.MethodPatch, "/api/v1/playlist/remove/"+second+"/"+playlist.ID, alice.token, nil), &updated)
	if len(updated.Videos) != 1 {
		t.Fatalf("expected stale reference to be removable, got %+v", updated.Videos)
	}
	expectStatus(t, env.do(http.MethodPatch, "/api/v1/playlist/remove/"+second+"/"+playlist.ID, alice.token, nil), http.StatusBadRequest)

	var lists []models.PlaylistView
	decodeData(t, env.do(http.MethodGet, "/api/v1/playlist/user/"+alice.user.ID, bob.token, nil), &lists)
	if len(lists) != 1 || lists[0].TotalVideos != 1 {
		t.Fatalf("unexpected user playlists %+v", lists)
	}

	decodeData(t, env.do(http.MethodPatch, "/api/v1/playlist/"+playlist.ID, alice.token, playlistRequest{Name: "renamed"}), &updated)
	if updated.Name != "renamed" || updated.Description != "favourites" {
		t.Fatalf("unexpected update %+v", updated)
	}
	expectStatus(t, env.do(http.MethodDelete, "/api/v1/playlist/"+playlist.ID, bob.token, nil), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodDelete, "/api/v1/playlist/"+playlist.ID, alice.token, nil), http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/api/v1/playlist/"+playlist.ID, alice.token, nil), http.StatusNotFound)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUp("alice", "password123")
	bob := env.signUp("bob", "password123")
	videoID := env.publishVideo(alice, "V", "video")
	env.do(http.MethodGet, "/api/v1/videos/"+videoID, bob.token, nil)
	env.do(http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, bob.token, nil)

	var stats models.ChannelStats
	decodeData(t, env.do(http.MethodGet, "/api/v1/dashboard/stats", alice.token, nil), &stats)
	if stats.TotalVideos != 1 || stats.TotalViews != 1 || stats.TotalLikes.VideoLikes != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	var videos []models.VideoView
	decodeData(t, env.do(http.MethodGet, "/api/v1/dashboard/videos", alice.token, nil), &videos)
	if len(videos) != 1 {
		t.Fatalf("unexpected channel videos %+v", videos)
	}
}
