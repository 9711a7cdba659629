package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/respond"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostAPI interface {
	CreatePost(ctx context.Context, userID primitive.ObjectID, caption string, image io.Reader) (*models.PostView, error)
	ListPosts(ctx context.Context) ([]models.PostView, error)
	ListUserPosts(ctx context.Context, userID primitive.ObjectID) ([]models.PostView, error)
	ToggleLike(ctx context.Context, userID, postID primitive.ObjectID) (bool, error)
	ToggleSave(ctx context.Context, userID, postID primitive.ObjectID) (bool, error)
	AddComment(ctx context.Context, userID, postID primitive.ObjectID, text string) (*models.CommentView, error)
	DeletePost(ctx context.Context, userID, postID primitive.ObjectID) error
}

type PostHandler struct {
	svc PostAPI
	log logrus.FieldLogger
}

func NewPostHandler(svc PostAPI, log logrus.FieldLogger) *PostHandler {
	return &PostHandler{svc: svc, log: log}
}

type CommentRequest struct {
	Text string `json:"text"`
}

// Create accepts a multipart form with "caption" and a required "image".
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	file, err := imageFile(r, "image")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if file == nil {
		respond.Error(w, h.log, apperror.Validation("Image is required"))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	post, err := h.svc.CreatePost(ctx, p.UserID, r.FormValue("caption"), file)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusCreated, "Post created successfully", map[string]interface{}{"post": post})
}

func (h *PostHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	posts, err := h.svc.ListPosts(ctx)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.List(w, map[string]interface{}{"posts": posts}, len(posts))
}

func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	posts, err := h.svc.ListUserPosts(ctx, userID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.List(w, map[string]interface{}{"posts": posts}, len(posts))
}

func (h *PostHandler) SaveUnsave(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "postId", h.svc.ToggleSave, "Post saved successfully", "Post unsaved successfully", "saved")
}

func (h *PostHandler) LikeDislike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "id", h.svc.ToggleLike, "Post liked successfully", "Post disliked successfully", "liked")
}

type toggleFunc func(ctx context.Context, userID, postID primitive.ObjectID) (bool, error)

func (h *PostHandler) toggle(w http.ResponseWriter, r *http.Request, param string, fn toggleFunc, onMsg, offMsg, field string) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	postID, err := idParam(r, param)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	on, err := fn(ctx, p.UserID, postID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	msg := offMsg
	if on {
		msg = onMsg
	}
	respond.OK(w, http.StatusOK, msg, map[string]interface{}{field: on})
}

func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	postID, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	comment, err := h.svc.AddComment(ctx, p.UserID, postID, req.Text)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusCreated, "Comment added successfully", map[string]interface{}{"comment": comment})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	postID, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	if err := h.svc.DeletePost(ctx, p.UserID, postID); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "Post deleted successfully", nil)
}
