package services

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/metrics"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const msgPostNotFound = "Post not found"

// PostService owns posts, likes, saves and comments.
type PostService struct {
	posts    PostStore
	comments CommentStore
	users    UserStore
	images   ImageStore
	folder   string
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

func NewPostService(posts PostStore, comments CommentStore, users UserStore, images ImageStore, folder string, m *metrics.Metrics, log logrus.FieldLogger) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		users:    users,
		images:   images,
		folder:   folder,
		metrics:  m,
		log:      log.WithField("service", "posts"),
	}
}

// CreatePost uploads image and records a post owned by userID.
func (s *PostService) CreatePost(ctx context.Context, userID primitive.ObjectID, caption string, image io.Reader) (*models.PostView, error) {
	if image == nil {
		return nil, apperror.Validation("Image is required")
	}
	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > models.MaxCaptionLength {
		return nil, apperror.Validation("Caption must be at most 2200 characters")
	}
	if s.images == nil {
		return nil, apperror.Dependency("Image storage is not configured", nil)
	}

	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	img, err := s.images.Upload(ctx, image, s.folder)
	if err != nil {
		return nil, apperror.Dependency("Failed to upload image", err)
	}

	post := &models.Post{Caption: caption, Image: img, User: userID}
	if err := s.posts.Create(ctx, post); err != nil {
		s.discardImage(ctx, img.PublicID)
		return nil, apperror.Internal("Failed to create post", err)
	}
	if err := s.users.AddPost(ctx, userID, post.ID); err != nil {
		if delErr := s.posts.Delete(ctx, post.ID); delErr != nil {
			s.log.WithError(delErr).WithField("post_id", post.ID.Hex()).Warn("orphaned post not removed")
		}
		s.discardImage(ctx, img.PublicID)
		return nil, storeError(err, "User not found")
	}
	s.metrics.PostCreated()

	profile := owner.Profile()
	return &models.PostView{
		ID:        post.ID,
		Caption:   post.Caption,
		Image:     post.Image,
		User:      &profile,
		Likes:     post.Likes,
		Comments:  []models.CommentView{},
		CreatedAt: post.CreatedAt,
	}, nil
}

// ListPosts returns every post newest first with owners and comments resolved.
func (s *PostService) ListPosts(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to load posts", err)
	}
	return s.populate(ctx, posts)
}

// ListUserPosts returns the posts of userID newest first.
func (s *PostService) ListUserPosts(ctx context.Context, userID primitive.ObjectID) ([]models.PostView, error) {
	posts, err := s.posts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Failed to load posts", err)
	}
	return s.populate(ctx, posts)
}

// ToggleLike likes the post if userID has not liked it yet, otherwise
// removes the like. It reports whether the post is liked afterwards.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID primitive.ObjectID) (bool, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return false, storeError(err, msgPostNotFound)
	}

	if post.HasLike(userID) {
		if err := s.posts.RemoveLike(ctx, postID, userID); err != nil {
			return false, storeError(err, msgPostNotFound)
		}
		return false, nil
	}
	if err := s.posts.AddLike(ctx, postID, userID); err != nil {
		return false, storeError(err, msgPostNotFound)
	}
	return true, nil
}

// ToggleSave adds or removes postID from userID's saved posts and reports
// whether it is saved afterwards.
func (s *PostService) ToggleSave(ctx context.Context, userID, postID primitive.ObjectID) (bool, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return false, storeError(err, msgPostNotFound)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, storeError(err, "User not found")
	}

	if user.HasSaved(postID) {
		if err := s.users.RemoveSavedPost(ctx, userID, postID); err != nil {
			return false, storeError(err, "User not found")
		}
		return false, nil
	}
	if err := s.users.AddSavedPost(ctx, userID, postID); err != nil {
		return false, storeError(err, "User not found")
	}
	return true, nil
}

// AddComment appends a comment by userID to the post.
func (s *PostService) AddComment(ctx context.Context, userID, postID primitive.ObjectID, text string) (*models.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("Comment text is required")
	}
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, storeError(err, msgPostNotFound)
	}

	comment := &models.Comment{Text: text, User: userID, Post: postID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperror.Internal("Failed to add comment", err)
	}
	if err := s.posts.AddComment(ctx, postID, comment.ID); err != nil {
		return nil, storeError(err, msgPostNotFound)
	}

	profiles, err := s.users.Profiles(ctx, []primitive.ObjectID{userID})
	if err != nil {
		return nil, apperror.Internal("Failed to load comment author", err)
	}
	author := profileOrID(profiles, userID)
	return &models.CommentView{ID: comment.ID, Text: comment.Text, User: &author, CreatedAt: comment.CreatedAt}, nil
}

// DeletePost removes a post owned by userID together with everything that
// references it: the owner's post list, every user's saved posts, its
// comments and the stored image. The image is removed last and a failure
// there is only logged.
func (s *PostService) DeletePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return storeError(err, msgPostNotFound)
	}
	if post.User != userID {
		return apperror.Forbidden("You are not authorized to delete this post")
	}

	if err := s.users.RemovePost(ctx, userID, postID); err != nil {
		return storeError(err, "User not found")
	}
	if _, err := s.users.RemoveSavedPostEverywhere(ctx, postID); err != nil {
		return apperror.Internal("Failed to delete post", err)
	}
	if _, err := s.comments.DeleteByPost(ctx, postID); err != nil {
		return apperror.Internal("Failed to delete post", err)
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return storeError(err, msgPostNotFound)
	}
	if s.images != nil {
		s.discardImage(ctx, post.Image.PublicID)
	}
	return nil
}

// populate resolves owners and comments with one batched lookup each.
func (s *PostService) populate(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	var commentIDs []primitive.ObjectID
	for _, p := range posts {
		commentIDs = append(commentIDs, p.Comments...)
	}
	comments, err := s.comments.FindByIDs(ctx, commentIDs)
	if err != nil {
		return nil, apperror.Internal("Failed to load comments", err)
	}
	byID := make(map[primitive.ObjectID]models.Comment, len(comments))

	userIDs := make([]primitive.ObjectID, 0, len(posts)+len(comments))
	for _, p := range posts {
		userIDs = append(userIDs, p.User)
	}
	for _, c := range comments {
		byID[c.ID] = c
		userIDs = append(userIDs, c.User)
	}
	profiles, err := s.users.Profiles(ctx, dedupe(userIDs))
	if err != nil {
		return nil, apperror.Internal("Failed to load users", err)
	}

	for _, p := range posts {
		view := models.PostView{
			ID:        p.ID,
			Caption:   p.Caption,
			Image:     p.Image,
			Likes:     p.Likes,
			Comments:  make([]models.CommentView, 0, len(p.Comments)),
			CreatedAt: p.CreatedAt,
		}
		if owner, ok := profiles[p.User]; ok {
			view.User = &owner
		}
		for _, id := range p.Comments {
			c, ok := byID[id]
			if !ok {
				continue
			}
			cv := models.CommentView{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
			if author, ok := profiles[c.User]; ok {
				cv.User = &author
			}
			view.Comments = append(view.Comments, cv)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *PostService) discardImage(ctx context.Context, publicID string) {
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.log.WithError(err).WithField("public_id", publicID).Warn("orphaned image not removed")
	}
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
