package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// LikeRepository toggles likes on videos, comments and tweets.
type LikeRepository interface {
	Toggle(ctx context.Context, target models.LikeTarget, userID string) (bool, error)
}

// SubscriptionRepository toggles channel subscriptions.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}
