package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/respond"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessagingAPI interface {
	SendMessage(ctx context.Context, senderID, recipientID primitive.ObjectID, text, image string) (*models.MessageView, error)
	ListMessages(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.MessageView, error)
	ListConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error)
}

type MessageHandler struct {
	svc MessagingAPI
	log logrus.FieldLogger
}

func NewMessageHandler(svc MessagingAPI, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

type SendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
	Image       string `json:"image"`
}

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.svc.ListConversations(ctx, p.UserID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.List(w, map[string]interface{}{"conversations": list}, len(list))
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var req SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	// an absent recipient is left zero for the service to reject
	var recipient primitive.ObjectID
	if raw := strings.TrimSpace(req.RecipientID); raw != "" {
		recipient, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.Error(w, h.log, apperror.Validation("Invalid recipient id"))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msg, err := h.svc.SendMessage(ctx, p.UserID, recipient, req.Text, req.Image)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusCreated, "", map[string]interface{}{"message": msg})
}

func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	otherID, err := idParam(r, "userId")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.svc.ListMessages(ctx, p.UserID, otherID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.List(w, map[string]interface{}{"messages": msgs}, len(msgs))
}
