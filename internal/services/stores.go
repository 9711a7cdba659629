package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the persistence the services need for users. It is satisfied
// by *repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetOTP(ctx context.Context, email, otp string, now time.Time) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	SetOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error
	SetResetOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, bio, picture *string) error

	AddPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error
	AddSavedPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemoveSavedPost(ctx context.Context, userID, postID primitive.ObjectID) error
	RemoveSavedPostEverywhere(ctx context.Context, postID primitive.ObjectID) (int64, error)
	Follow(ctx context.Context, followerID, targetID primitive.ObjectID) error
	Unfollow(ctx context.Context, followerID, targetID primitive.ObjectID) error

	Profiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicProfile, error)
	Search(ctx context.Context, query string, exclude primitive.ObjectID, limit int64) ([]models.PublicProfile, error)
}

type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error
	AddComment(ctx context.Context, postID, commentID primitive.ObjectID) error
}

type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Comment, error)
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	FindBetween(ctx context.Context, a, b primitive.ObjectID) ([]models.Message, error)
	FindInvolving(ctx context.Context, userID primitive.ObjectID) ([]models.Message, error)
	MarkRead(ctx context.Context, sender, recipient primitive.ObjectID) (int64, error)
}

// ConversationAggregator is implemented by message stores that can build the
// directory server-side.
type ConversationAggregator interface {
	AggregateConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error)
}

// ImageStore persists uploaded images and removes them again.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, folder string) (models.Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// Mailer delivers one-time codes.
type Mailer interface {
	SendVerification(ctx context.Context, to, username, otp string) error
	SendPasswordReset(ctx context.Context, to, username, otp string) error
}

var (
	_ UserStore              = (*repository.UserRepository)(nil)
	_ PostStore              = (*repository.PostRepository)(nil)
	_ CommentStore           = (*repository.CommentRepository)(nil)
	_ MessageStore           = (*repository.MessageRepository)(nil)
	_ ConversationAggregator = (*repository.MessageRepository)(nil)
)

// storeError maps repository errors onto apperror kinds.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict("Resource already exists")
	default:
		return apperror.Internal("Something went wrong", err)
	}
}
