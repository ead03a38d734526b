package models

import "time"

// UserSummary is the public slice of a user embedded in other documents.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Fullname string `json:"fullname,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// ChannelProfile is the public page of a channel as seen by a viewer.
type ChannelProfile struct {
	ID                        string  `json:"_id"`
	Username                  string  `json:"username"`
	Fullname                  string  `json:"fullname"`
	Email                     string  `json:"email"`
	Avatar                    string  `json:"avatar"`
	CoverImage                *string `json:"coverImage"`
	SubscribersCount          int64   `json:"subscribersCount"`
	ChannelsSubscribedToCount int64   `json:"channelsSubscribedToCount"`
	IsSubscribed              bool    `json:"isSubscribed"`
}

// LikeTotals breaks down the likes received on a channel's content.
type LikeTotals struct {
	VideoLikes   int64 `json:"videoLikes"`
	TweetLikes   int64 `json:"tweetLikes"`
	CommentLikes int64 `json:"commentLikes"`
	Total        int64 `json:"total"`
}

// ChannelStats aggregates totals for the dashboard of the authenticated channel.
type ChannelStats struct {
	ID            string     `json:"_id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Fullname      string     `json:"fullname"`
	Avatar        string     `json:"avatar"`
	TotalVideos   int64      `json:"totalVideos"`
	TotalViews    int64      `json:"totalViews"`
	TotalComments int64      `json:"totalComments"`
	Subscribers   int64      `json:"subscribers"`
	SubscribedTo  int64      `json:"subscribedTo"`
	TotalTweets   int64      `json:"totalTweets"`
	TotalLikes    LikeTotals `json:"totalLikes"`
}

// VideoView is a video joined with its owner's public profile.
type VideoView struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	IsPublished bool         `json:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt"`
	Owner       *UserSummary `json:"owner,omitempty"`
}

// CommentView is a comment joined with its author.
type CommentView struct {
	ID        string       `json:"_id"`
	Content   string       `json:"content"`
	Video     string       `json:"video"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"owner"`
}

// TweetView is a tweet joined with its author.
type TweetView struct {
	ID        string       `json:"_id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"owner"`
}

// PlaylistVideo is a resolved playlist entry.
type PlaylistVideo struct {
	ID          string       `json:"_id"`
	Thumbnail   string       `json:"thumbnail"`
	Title       string       `json:"title"`
	VideoFile   string       `json:"videoFile"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	Description string       `json:"description"`
	VideoOwner  *UserSummary `json:"videoOwner"`
}

// PlaylistView is a playlist with its videos resolved.
type PlaylistView struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Owner         string          `json:"owner,omitempty"`
	PlaylistOwner *UserSummary    `json:"playlistOwner,omitempty"`
	Videos        []PlaylistVideo `json:"videos"`
	TotalVideos   int64           `json:"totalVideos"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// LikedVideo is a video the viewer has liked.
type LikedVideo struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Thumbnail   string       `json:"thumbnail"`
	VideoFile   string       `json:"videoFile"`
	Owner       *UserSummary `json:"owner"`
}
