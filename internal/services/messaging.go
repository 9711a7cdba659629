package services

import (
	"context"
	"strings"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/metrics"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgContentRequired  = "Recipient and either message text or image is required"
	msgSelfMessage      = "You cannot message yourself"
	msgRecipientMissing = "Recipient not found"
)

// MessagingService sends direct messages, lists a conversation and builds
// the per-user conversation directory.
type MessagingService struct {
	messages MessageStore
	users    UserStore
	cache    *ConversationCache
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

func NewMessagingService(messages MessageStore, users UserStore, cache *ConversationCache, m *metrics.Metrics, log logrus.FieldLogger) *MessagingService {
	return &MessagingService{
		messages: messages,
		users:    users,
		cache:    cache,
		metrics:  m,
		log:      log.WithField("service", "messaging"),
	}
}

// SendMessage stores a message from senderID to recipientID. A zero
// recipientID means the recipient was not supplied.
func (s *MessagingService) SendMessage(ctx context.Context, senderID, recipientID primitive.ObjectID, text, image string) (*models.MessageView, error) {
	if recipientID.IsZero() {
		return nil, apperror.Validation(msgContentRequired)
	}
	if senderID == recipientID {
		return nil, apperror.SelfAction(msgSelfMessage)
	}

	text = strings.TrimSpace(text)
	image = strings.TrimSpace(image)
	if text == "" && image == "" {
		return nil, apperror.Validation(msgContentRequired)
	}

	if _, err := s.users.FindByID(ctx, recipientID); err != nil {
		return nil, storeError(err, msgRecipientMissing)
	}

	msg := &models.Message{
		Sender:    senderID,
		Recipient: recipientID,
		Text:      text,
		Image:     image,
		IsRead:    false,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperror.Internal("Failed to send message", err)
	}
	s.metrics.MessageSent()

	if err := s.cache.Invalidate(ctx, senderID, recipientID); err != nil {
		s.log.WithError(err).Warn("conversation cache invalidation failed")
	}

	profiles, err := s.users.Profiles(ctx, []primitive.ObjectID{senderID, recipientID})
	if err != nil {
		return nil, apperror.Internal("Failed to load message participants", err)
	}
	view := messageView(*msg, profiles)
	return &view, nil
}

// ListMessages returns the conversation between userID and otherID oldest
// first, then marks otherID's unread messages to userID as read. The returned
// messages carry the read state observed before the update.
func (s *MessagingService) ListMessages(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.MessageView, error) {
	if userID == otherID {
		return nil, apperror.SelfAction("You cannot view a conversation with yourself")
	}

	msgs, err := s.messages.FindBetween(ctx, userID, otherID)
	if err != nil {
		return nil, apperror.Internal("Failed to load messages", err)
	}
	profiles, err := s.users.Profiles(ctx, []primitive.ObjectID{userID, otherID})
	if err != nil {
		return nil, apperror.Internal("Failed to load message participants", err)
	}

	views := make([]models.MessageView, len(msgs))
	for i, m := range msgs {
		views[i] = messageView(m, profiles)
	}

	marked, err := s.messages.MarkRead(ctx, otherID, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID.Hex()).Warn("mark messages read failed")
	} else if marked > 0 {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.log.WithError(err).Warn("conversation cache invalidation failed")
		}
	}
	return views, nil
}

// ListConversations returns one summary per counterpart of userID, most
// recent conversation first. It never returns a nil slice.
func (s *MessagingService) ListConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok && cached != nil {
		return cached, nil
	}

	var (
		list []models.ConversationSummary
		err  error
	)
	if agg, ok := s.messages.(ConversationAggregator); ok {
		list, err = agg.AggregateConversations(ctx, userID)
	} else {
		list, err = s.scanConversations(ctx, userID)
	}
	if err != nil {
		return nil, apperror.Internal("Failed to load conversations", err)
	}
	if list == nil {
		list = []models.ConversationSummary{}
	}

	if err := s.cache.Set(ctx, userID, list); err != nil {
		s.log.WithError(err).Warn("conversation cache write failed")
	}
	return list, nil
}

func (s *MessagingService) scanConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	msgs, err := s.messages.FindInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []models.ConversationSummary{}, nil
	}
	profiles, err := s.users.Profiles(ctx, Counterparts(userID, msgs))
	if err != nil {
		return nil, err
	}
	return GroupConversations(userID, msgs, profiles), nil
}

func messageView(m models.Message, profiles map[primitive.ObjectID]models.PublicProfile) models.MessageView {
	return models.MessageView{
		ID:        m.ID,
		Sender:    profileOrID(profiles, m.Sender),
		Recipient: profileOrID(profiles, m.Recipient),
		Text:      m.Text,
		Image:     m.Image,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func profileOrID(profiles map[primitive.ObjectID]models.PublicProfile, id primitive.ObjectID) models.PublicProfile {
	if p, ok := profiles[id]; ok {
		return p
	}
	return models.PublicProfile{ID: id}
}
