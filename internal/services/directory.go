package services

import (
	"sort"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type conversationGroup struct {
	counterpart primitive.ObjectID
	latest      models.Message
	unread      int
}

// GroupConversations folds the messages involving userID into one entry per
// counterpart. msgs may come in any order. Counterparts missing from
// profiles are dropped. The result is sorted by lastMessageTime descending
// and is never nil.
func GroupConversations(userID primitive.ObjectID, msgs []models.Message, profiles map[primitive.ObjectID]models.PublicProfile) []models.ConversationSummary {
	groups := make(map[primitive.ObjectID]*conversationGroup)
	for _, m := range msgs {
		if m.Sender != userID && m.Recipient != userID {
			continue
		}
		other := m.Counterpart(userID)
		g, ok := groups[other]
		if !ok {
			g = &conversationGroup{counterpart: other, latest: m}
			groups[other] = g
		} else if newer(m, g.latest) {
			g.latest = m
		}
		if m.Recipient == userID && !m.IsRead {
			g.unread++
		}
	}

	out := make([]models.ConversationSummary, 0, len(groups))
	for id, g := range groups {
		profile, ok := profiles[id]
		if !ok {
			continue
		}
		out = append(out, models.ConversationSummary{
			UserID: id,
			User: models.PublicProfile{
				ID:             profile.ID,
				Username:       profile.Username,
				ProfilePicture: profile.ProfilePicture,
			},
			LastMessage:     g.latest.Text,
			LastMessageTime: g.latest.CreatedAt,
			UnreadCount:     g.unread,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].LastMessageTime.After(out[j].LastMessageTime)
		}
		return out[i].UserID.Hex() > out[j].UserID.Hex()
	})
	return out
}

// Counterparts lists the distinct other participants of msgs.
func Counterparts(userID primitive.ObjectID, msgs []models.Message) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0)
	for _, m := range msgs {
		other := m.Counterpart(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	return ids
}

// newer orders messages by createdAt, then by id for equal timestamps.
func newer(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.Hex() > b.ID.Hex()
}
