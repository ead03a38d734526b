package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/api"
)

// SubscriptionHandler toggles and lists channel subscriptions.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserLookup
	Reader        ReadModels
}

type subscriptionResult struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	channelID, err := pathID(r, "channelId", "channel id")
	if err != nil {
		return err
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		return lookupError(err, "Channel not found")
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, user.ID, channelID)
	if err != nil {
		return storeError("Something went wrong while toggling subscription", err)
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	api.Respond(ctx, w, http.StatusOK, subscriptionResult{Subscribed: subscribed}, message)
	return nil
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId", "channel id")
	if err != nil {
		return err
	}

	subscribers, err := h.Reader.ChannelSubscribers(ctx, channelID)
	if err != nil {
		return api.Internal("Something went wrong while fetching subscribers", err)
	}

	api.Respond(ctx, w, http.StatusOK, subscribers, "Subscribers fetched successfully")
	return nil
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	subscriberID, err := pathID(r, "subscriberId", "subscriber id")
	if err != nil {
		return err
	}

	channels, err := h.Reader.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		return api.Internal("Something went wrong while fetching subscribed channels", err)
	}

	api.Respond(ctx, w, http.StatusOK, channels, "Subscribed channels fetched successfully")
	return nil
}
