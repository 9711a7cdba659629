package services

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxBioLength      = 150
	SearchResultLimit = 20

	msgUserNotFound = "User not found"
)

// UserService covers profiles, search and the follow graph.
type UserService struct {
	users  UserStore
	posts  PostStore
	images ImageStore
	folder string
	log    logrus.FieldLogger
}

func NewUserService(users UserStore, posts PostStore, images ImageStore, folder string, log logrus.FieldLogger) *UserService {
	return &UserService{
		users:  users,
		posts:  posts,
		images: images,
		folder: folder,
		log:    log.WithField("service", "users"),
	}
}

// GetProfile returns userID with its own posts (newest first) and saved posts.
func (s *UserService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, msgUserNotFound)
	}

	posts, err := s.posts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Failed to load posts", err)
	}
	saved, err := s.posts.FindByIDs(ctx, user.SavedPosts)
	if err != nil {
		return nil, apperror.Internal("Failed to load saved posts", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	if saved == nil {
		saved = []models.Post{}
	}
	return &models.UserProfile{User: user, Posts: posts, SavedPosts: saved}, nil
}

// Me returns the caller's own user document.
func (s *UserService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, msgUserNotFound)
	}
	return user, nil
}

// EditProfile updates the bio and, when picture is non-nil, uploads a new
// profile picture.
func (s *UserService) EditProfile(ctx context.Context, userID primitive.ObjectID, bio *string, picture io.Reader) (*models.User, error) {
	var pictureURL *string

	if bio != nil {
		trimmed := strings.TrimSpace(*bio)
		if utf8.RuneCountInString(trimmed) > MaxBioLength {
			return nil, apperror.Validation("Bio must be at most 150 characters")
		}
		bio = &trimmed
	}
	if picture != nil {
		if s.images == nil {
			return nil, apperror.Dependency("Image storage is not configured", nil)
		}
		img, err := s.images.Upload(ctx, picture, s.folder+"/profiles")
		if err != nil {
			return nil, apperror.Dependency("Failed to upload profile picture", err)
		}
		pictureURL = &img.URL
	}
	if bio == nil && pictureURL == nil {
		return nil, apperror.Validation("Nothing to update")
	}

	if err := s.users.UpdateProfile(ctx, userID, bio, pictureURL); err != nil {
		return nil, storeError(err, msgUserNotFound)
	}
	return s.Me(ctx, userID)
}

// Search returns users whose username starts with query, excluding the caller.
func (s *UserService) Search(ctx context.Context, userID primitive.ObjectID, query string) ([]models.PublicProfile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("Search query is required")
	}
	users, err := s.users.Search(ctx, query, userID, SearchResultLimit)
	if err != nil {
		return nil, apperror.Internal("Failed to search users", err)
	}
	if users == nil {
		users = []models.PublicProfile{}
	}
	return users, nil
}

// ToggleFollow follows targetID if userID does not follow it yet, otherwise
// unfollows. It reports whether userID follows targetID afterwards.
func (s *UserService) ToggleFollow(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	if userID == targetID {
		return false, apperror.SelfAction("You cannot follow/unfollow yourself")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, storeError(err, msgUserNotFound)
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return false, storeError(err, msgUserNotFound)
	}

	if user.IsFollowing(targetID) {
		if err := s.users.Unfollow(ctx, userID, targetID); err != nil {
			return false, storeError(err, msgUserNotFound)
		}
		return false, nil
	}
	if err := s.users.Follow(ctx, userID, targetID); err != nil {
		return false, storeError(err, msgUserNotFound)
	}
	return true, nil
}
