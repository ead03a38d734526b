package readmodels

import (
	p "github.com/vidtube/backend/internal/pipeline"
)

// ownerJoin resolves a user reference held in local into a one-element array
// named as, carrying only fields.
func ownerJoin(local, as string, fields ...string) p.Join {
	return p.Join{
		From:         Users,
		LocalField:   local,
		ForeignField: "_id",
		As:           as,
		Pipeline:     p.Sub().Project(p.Keep(fields...)...),
	}
}

// withOwner joins the owner profile and flattens it to a single object.
func withOwner(pl p.Pipeline, fields ...string) p.Pipeline {
	return pl.
		Lookup(ownerJoin("owner", "owner", fields...)).
		AddFields(p.Set("owner", p.First("owner")))
}

func channelProfilePipeline(username, viewerID string) p.Pipeline {
	return p.From(Users).
		Match(p.Eq("username", username)).
		Lookup(p.Join{From: Subscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"}).
		Lookup(p.Join{From: Subscriptions, LocalField: "_id", ForeignField: "subscriber", As: "subscribedTo"}).
		Project(p.Fields(
			p.Keep("_id", "username", "fullname", "email", "avatar", "coverImage"),
			[]p.Field{
				p.Set("subscribersCount", p.Size("subscribers")),
				p.Set("channelsSubscribedToCount", p.Size("subscribedTo")),
				p.Set("isSubscribed", p.In(viewerID, "subscribers", "subscriber")),
			},
		)...)
}

func channelStatsPipeline(userID string) p.Pipeline {
	likesOf := func(foreign string) p.Join {
		return p.Join{From: Likes, LocalField: "_id", ForeignField: foreign, As: "likes"}
	}

	videoLikes := p.Sum("videos", p.Size("likes"))
	tweetLikes := p.Sum("tweets", p.Size("likes"))
	commentLikes := p.Sum("comments", p.Size("likes"))

	return p.From(Users).
		Match(p.Eq("_id", userID)).
		Lookup(p.Join{
			From: Videos, LocalField: "_id", ForeignField: "owner", As: "videos",
			Pipeline: p.Sub().
				Lookup(likesOf("video")).
				Lookup(p.Join{From: Comments, LocalField: "_id", ForeignField: "video", As: "comments"}),
		}).
		Lookup(p.Join{From: Subscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"}).
		Lookup(p.Join{From: Subscriptions, LocalField: "_id", ForeignField: "subscriber", As: "subscribedTo"}).
		Lookup(p.Join{
			From: Tweets, LocalField: "_id", ForeignField: "owner", As: "tweets",
			Pipeline: p.Sub().Lookup(likesOf("tweet")),
		}).
		Lookup(p.Join{
			From: Comments, LocalField: "_id", ForeignField: "owner", As: "comments",
			Pipeline: p.Sub().Lookup(likesOf("comment")),
		}).
		Project(p.Fields(
			p.Keep("_id", "username", "email", "fullname", "avatar"),
			[]p.Field{
				p.Set("totalVideos", p.Size("videos")),
				p.Set("totalViews", p.Sum("videos", p.Num("views"))),
				p.Set("totalComments", p.Sum("videos", p.Size("comments"))),
				p.Set("subscribers", p.Size("subscribers")),
				p.Set("subscribedTo", p.Size("subscribedTo")),
				p.Set("totalTweets", p.Size("tweets")),
				p.Set("totalLikes", p.Object(
					p.Set("videoLikes", videoLikes),
					p.Set("tweetLikes", tweetLikes),
					p.Set("commentLikes", commentLikes),
					p.Set("total", p.Add(videoLikes, tweetLikes, commentLikes)),
				)),
			},
		)...)
}

func channelVideosPipeline(userID string) p.Pipeline {
	return p.From(Videos).
		Match(p.Eq("owner", userID)).
		Sort(p.Desc("createdAt")).
		Project(p.Keep("_id", "title", "description", "thumbnail", "videoFile", "views", "duration", "isPublished", "createdAt")...)
}

func watchHistoryPipeline(userID string) p.Pipeline {
	return p.From(Users).
		Match(p.Eq("_id", userID)).
		Lookup(p.Join{
			From:         Videos,
			LocalField:   "watchHistory",
			ForeignField: "_id",
			As:           "watchHistory",
			LocalArray:   true,
			Pipeline:     withOwner(p.Sub(), "_id", "username", "fullname", "avatar"),
		}).
		Unwind("watchHistory").
		ReplaceRoot("watchHistory")
}

func videoDetailPipeline(videoID string) p.Pipeline {
	return withOwner(p.From(Videos).Match(p.Eq("_id", videoID)),
		"_id", "username", "fullname", "email", "avatar")
}

// VideoFilter narrows the public video listing.
type VideoFilter struct {
	Query    string
	OwnerID  string
	SortBy   string
	SortDesc bool
}

var videoSortFields = map[string]struct{}{
	"createdAt": {},
	"views":     {},
	"duration":  {},
	"title":     {},
}

// SortKey resolves the requested sort against the allowed fields, defaulting to createdAt.
func (f VideoFilter) SortKey() p.SortKey {
	field := f.SortBy
	if _, ok := videoSortFields[field]; !ok {
		field = "createdAt"
	}
	return p.SortKey{Field: field, Desc: f.SortDesc}
}

func videoListPipeline(f VideoFilter) p.Pipeline {
	conds := []p.Cond{
		p.Contains(f.Query, "title", "description"),
		p.IsTrue("isPublished"),
	}
	if f.OwnerID != "" {
		conds = append(conds, p.Eq("owner", f.OwnerID))
	}
	return withOwner(p.From(Videos).Match(p.And(conds...)), "_id", "username", "email", "avatar").
		Sort(f.SortKey())
}

func videoCommentsPipeline(videoID string) p.Pipeline {
	return withOwner(p.From(Comments).Match(p.Eq("video", videoID)), "_id", "username", "avatar").
		Sort(p.Asc("createdAt"))
}

func userTweetsPipeline(userID string) p.Pipeline {
	return withOwner(p.From(Tweets).Match(p.Eq("owner", userID)), "_id", "email", "username", "fullname", "avatar").
		Sort(p.Desc("createdAt"))
}

func likedVideosPipeline(userID string) p.Pipeline {
	video := withOwner(p.Sub(), "_id", "username", "fullname", "avatar").
		Project(p.Keep("_id", "title", "description", "thumbnail", "videoFile", "owner")...)

	return p.From(Likes).
		Match(p.Eq("likedBy", userID)).
		Sort(p.Desc("createdAt")).
		Lookup(p.Join{From: Videos, LocalField: "video", ForeignField: "_id", As: "video", Pipeline: video}).
		Unwind("video").
		ReplaceRoot("video")
}

// playlistVideos resolves the playlist's video ids in insertion order. Ids of
// deleted videos resolve to nothing and are not counted.
func playlistVideos(pl p.Pipeline) p.Pipeline {
	video := p.Sub().
		Lookup(ownerJoin("owner", "videoOwner", "_id", "username", "fullname", "avatar")).
		Project(p.Fields(
			p.Keep("_id", "thumbnail", "title", "videoFile", "duration", "views", "description"),
			[]p.Field{p.Set("videoOwner", p.First("videoOwner"))},
		)...)

	return pl.
		Lookup(p.Join{From: Videos, LocalField: "videos", ForeignField: "_id", As: "videos", LocalArray: true, Pipeline: video}).
		AddFields(p.Set("totalVideos", p.Size("videos")))
}

func userPlaylistsPipeline(userID string) p.Pipeline {
	return playlistVideos(p.From(Playlists).Match(p.Eq("owner", userID))).
		Sort(p.Desc("createdAt"))
}

func playlistDetailPipeline(playlistID string) p.Pipeline {
	return playlistVideos(p.From(Playlists).Match(p.Eq("_id", playlistID))).
		Lookup(ownerJoin("owner", "playlistOwner", "_id", "username", "fullname", "avatar")).
		AddFields(p.Set("playlistOwner", p.First("playlistOwner"))).
		Unset("owner")
}

// subscriptionUsers resolves the user referenced by side ("subscriber" or
// "channel") of each subscription matched on the other side.
func subscriptionUsers(matchField, userID, side string) p.Pipeline {
	return p.From(Subscriptions).
		Match(p.Eq(matchField, userID)).
		Sort(p.Desc("createdAt")).
		Lookup(ownerJoin(side, side, "_id", "username", "fullname", "avatar")).
		AddFields(p.Set(side, p.First(side))).
		ReplaceRoot(side)
}

func channelSubscribersPipeline(channelID string) p.Pipeline {
	return subscriptionUsers("channel", channelID, "subscriber")
}

func subscribedChannelsPipeline(subscriberID string) p.Pipeline {
	return subscriptionUsers("subscriber", subscriberID, "channel")
}
