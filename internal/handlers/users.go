package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/respond"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserAPI interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.UserProfile, error)
	Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	EditProfile(ctx context.Context, userID primitive.ObjectID, bio *string, picture io.Reader) (*models.User, error)
	Search(ctx context.Context, userID primitive.ObjectID, query string) ([]models.PublicProfile, error)
	ToggleFollow(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
}

type UserHandler struct {
	svc UserAPI
	log logrus.FieldLogger
}

func NewUserHandler(svc UserAPI, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.svc.Me(ctx, p.UserID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "", map[string]interface{}{"user": user})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profile, err := h.svc.GetProfile(ctx, id)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "", map[string]interface{}{"user": profile})
}

// EditProfile accepts a multipart form with an optional "bio" field and an
// optional "profilePicture" image.
func (h *UserHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	var bio *string
	if values, ok := r.MultipartForm.Value["bio"]; ok && len(values) > 0 {
		bio = &values[0]
	}
	file, err := imageFile(r, "profilePicture")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var picture io.Reader
	if file != nil {
		defer file.Close()
		picture = file
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	user, err := h.svc.EditProfile(ctx, p.UserID, bio, picture)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "Profile updated", map[string]interface{}{"user": user})
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	users, err := h.svc.Search(ctx, p.UserID, r.URL.Query().Get("q"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.List(w, map[string]interface{}{"users": users}, len(users))
}

func (h *UserHandler) FollowUnfollow(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	target, err := idParam(r, "id")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	following, err := h.svc.ToggleFollow(ctx, p.UserID, target)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	msg := "Unfollowed successfully"
	if following {
		msg = "Followed successfully"
	}
	respond.OK(w, http.StatusOK, msg, map[string]interface{}{"following": following})
}
