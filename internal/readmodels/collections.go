package readmodels

import (
	"fmt"

	"github.com/vidtube/backend/internal/pipeline"
)

// Collection names pipelines read from.
const (
	Users         = "users"
	Videos        = "videos"
	Comments      = "comments"
	Tweets        = "tweets"
	Likes         = "likes"
	Subscriptions = "subscriptions"
	Playlists     = "playlists"
)

// Schema exposes every table as documents shaped like the API's JSON.
// Object references are rendered as id strings; media fields as their URL.
func Schema() *pipeline.Schema {
	return pipeline.NewSchema(
		pipeline.Collection{Name: Users, Table: "users", Document: userDocument},
		pipeline.Collection{Name: Videos, Table: "videos", Document: videoDocument},
		pipeline.Collection{Name: Comments, Table: "comments", Document: commentDocument},
		pipeline.Collection{Name: Tweets, Table: "tweets", Document: tweetDocument},
		pipeline.Collection{Name: Likes, Table: "likes", Document: likeDocument},
		pipeline.Collection{Name: Subscriptions, Table: "subscriptions", Document: subscriptionDocument},
		pipeline.Collection{Name: Playlists, Table: "playlists", Document: playlistDocument},
	)
}

func userDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'username', %[1]s.username,
        'email', %[1]s.email,
        'fullname', %[1]s.fullname,
        'avatar', %[1]s.avatar_url,
        'coverImage', NULLIF(%[1]s.cover_image_url, ''),
        'watchHistory', COALESCE((
            SELECT jsonb_agg(wh.video_id::TEXT ORDER BY wh.watched_at, wh.video_id)
            FROM watch_history AS wh
            WHERE wh.user_id = %[1]s.id
        ), '[]'::JSONB),
        'createdAt', %[1]s.created_at,
        'updatedAt', %[1]s.updated_at
    )`, t)
}

func videoDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'owner', %[1]s.owner_id::TEXT,
        'title', %[1]s.title,
        'description', %[1]s.description,
        'videoFile', %[1]s.video_file_url,
        'thumbnail', %[1]s.thumbnail_url,
        'duration', %[1]s.duration,
        'views', %[1]s.views,
        'isPublished', %[1]s.is_published,
        'createdAt', %[1]s.created_at,
        'updatedAt', %[1]s.updated_at
    )`, t)
}

func commentDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'content', %[1]s.content,
        'video', %[1]s.video_id::TEXT,
        'owner', %[1]s.owner_id::TEXT,
        'createdAt', %[1]s.created_at,
        'updatedAt', %[1]s.updated_at
    )`, t)
}

func tweetDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'content', %[1]s.content,
        'owner', %[1]s.owner_id::TEXT,
        'createdAt', %[1]s.created_at,
        'updatedAt', %[1]s.updated_at
    )`, t)
}

func likeDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'video', %[1]s.video_id::TEXT,
        'comment', %[1]s.comment_id::TEXT,
        'tweet', %[1]s.tweet_id::TEXT,
        'likedBy', %[1]s.liked_by::TEXT,
        'createdAt', %[1]s.created_at
    )`, t)
}

func subscriptionDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'subscriber', %[1]s.subscriber_id::TEXT,
        'channel', %[1]s.channel_id::TEXT,
        'createdAt', %[1]s.created_at
    )`, t)
}

func playlistDocument(t string) string {
	return fmt.Sprintf(`jsonb_build_object(
        '_id', %[1]s.id::TEXT,
        'name', %[1]s.name,
        'description', %[1]s.description,
        'owner', %[1]s.owner_id::TEXT,
        'videos', COALESCE((
            SELECT jsonb_agg(pv.video_id::TEXT ORDER BY pv.added_at, pv.video_id)
            FROM playlist_videos AS pv
            WHERE pv.playlist_id = %[1]s.id
        ), '[]'::JSONB),
        'createdAt', %[1]s.created_at,
        'updatedAt', %[1]s.updated_at
    )`, t)
}
