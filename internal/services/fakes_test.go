package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{}, ids...)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*models.User
	calls []string

	addPostErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) record(op string) { f.calls = append(f.calls, op) }

func (f *fakeUsers) add(username string) *models.User {
	u := &models.User{ID: primitive.NewObjectID(), Username: username, Email: username + "@example.com"}
	f.mu.Lock()
	f.byID[u.ID] = u
	f.mu.Unlock()
	return u
}

func (f *fakeUsers) get(id primitive.ObjectID) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func clone(u *models.User) *models.User {
	c := *u
	c.Followers = cloneIDs(u.Followers)
	c.Following = cloneIDs(u.Following)
	c.Posts = cloneIDs(u.Posts)
	c.SavedPosts = cloneIDs(u.SavedPosts)
	return &c
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Create")
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.byID[u.ID] = clone(u)
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return clone(u), nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByResetOTP(_ context.Context, email, otp string, now time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email && u.ResetPasswordOTP != "" && u.ResetPasswordOTP == otp &&
			u.ResetPasswordOTPExpires != nil && u.ResetPasswordOTPExpires.After(now) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	return f.update(id, "Delete", func(*models.User) { delete(f.byID, id) })
}

func (f *fakeUsers) SetOTP(_ context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return f.update(id, "SetOTP", func(u *models.User) {
		u.OTP, u.OTPExpires = otp, timePtr(otp, expires)
	})
}

func (f *fakeUsers) SetResetOTP(_ context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return f.update(id, "SetResetOTP", func(u *models.User) {
		u.ResetPasswordOTP, u.ResetPasswordOTPExpires = otp, timePtr(otp, expires)
	})
}

func timePtr(code string, t time.Time) *time.Time {
	if code == "" {
		return nil
	}
	return &t
}

func (f *fakeUsers) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	return f.update(id, "MarkVerified", func(u *models.User) {
		u.IsVerified, u.OTP, u.OTPExpires = true, "", nil
	})
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return f.update(id, "UpdatePassword", func(u *models.User) {
		u.Password, u.ResetPasswordOTP, u.ResetPasswordOTPExpires = hash, "", nil
	})
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, bio, picture *string) error {
	return f.update(id, "UpdateProfile", func(u *models.User) {
		if bio != nil {
			u.Bio = *bio
		}
		if picture != nil {
			u.ProfilePicture = *picture
		}
	})
}

func (f *fakeUsers) AddPost(_ context.Context, userID, postID primitive.ObjectID) error {
	if f.addPostErr != nil {
		return f.addPostErr
	}
	return f.update(userID, "AddPost", func(u *models.User) { u.Posts = append(u.Posts, postID) })
}

func (f *fakeUsers) RemovePost(_ context.Context, userID, postID primitive.ObjectID) error {
	return f.update(userID, "RemovePost", func(u *models.User) { u.Posts = removeID(u.Posts, postID) })
}

func (f *fakeUsers) AddSavedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	return f.update(userID, "AddSavedPost", func(u *models.User) { u.SavedPosts = addID(u.SavedPosts, postID) })
}

func (f *fakeUsers) RemoveSavedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	return f.update(userID, "RemoveSavedPost", func(u *models.User) { u.SavedPosts = removeID(u.SavedPosts, postID) })
}

func (f *fakeUsers) RemoveSavedPostEverywhere(_ context.Context, postID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveSavedPostEverywhere")
	var n int64
	for _, u := range f.byID {
		if u.HasSaved(postID) {
			u.SavedPosts = removeID(u.SavedPosts, postID)
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) Follow(_ context.Context, followerID, targetID primitive.ObjectID) error {
	if err := f.update(followerID, "Follow", func(u *models.User) { u.Following = addID(u.Following, targetID) }); err != nil {
		return err
	}
	return f.update(targetID, "Follow", func(u *models.User) { u.Followers = addID(u.Followers, followerID) })
}

func (f *fakeUsers) Unfollow(_ context.Context, followerID, targetID primitive.ObjectID) error {
	if err := f.update(followerID, "Unfollow", func(u *models.User) { u.Following = removeID(u.Following, targetID) }); err != nil {
		return err
	}
	return f.update(targetID, "Unfollow", func(u *models.User) { u.Followers = removeID(u.Followers, followerID) })
}

func (f *fakeUsers) Profiles(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Profiles")
	out := make(map[primitive.ObjectID]models.PublicProfile, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = u.Profile()
		}
	}
	return out, nil
}

func (f *fakeUsers) Search(_ context.Context, query string, exclude primitive.ObjectID, limit int64) ([]models.PublicProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PublicProfile{}
	for _, u := range f.byID {
		if u.ID != exclude && strings.HasPrefix(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, u.Profile())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) update(id primitive.ObjectID, op string, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(op)
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

// fakePosts is an in-memory PostStore.
type fakePosts struct {
	byID    map[primitive.ObjectID]*models.Post
	deleted []primitive.ObjectID
	clock   time.Time
}

func newFakePosts() *fakePosts {
	return &fakePosts{byID: map[primitive.ObjectID]*models.Post{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) error {
	f.clock = f.clock.Add(time.Minute)
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = f.clock, f.clock
	p.Likes = cloneIDs(p.Likes)
	p.Comments = cloneIDs(p.Comments)
	c := *p
	f.byID[p.ID] = &c
	return nil
}

func (f *fakePosts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	c.Likes = cloneIDs(p.Likes)
	c.Comments = cloneIDs(p.Comments)
	return &c, nil
}

func (f *fakePosts) list(keep func(*models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range f.byID {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakePosts) FindAll(context.Context) ([]models.Post, error) {
	return f.list(func(*models.Post) bool { return true }), nil
}

func (f *fakePosts) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return f.list(func(p *models.Post) bool { return p.User == userID }), nil
}

func (f *fakePosts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	return f.list(func(p *models.Post) bool {
		for _, id := range ids {
			if id == p.ID {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakePosts) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePosts) AddLike(_ context.Context, postID, userID primitive.ObjectID) error {
	p, ok := f.byID[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Likes = addID(p.Likes, userID)
	return nil
}

func (f *fakePosts) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) error {
	p, ok := f.byID[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Likes = removeID(p.Likes, userID)
	return nil
}

func (f *fakePosts) AddComment(_ context.Context, postID, commentID primitive.ObjectID) error {
	p, ok := f.byID[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Comments = append(p.Comments, commentID)
	return nil
}

// fakeComments is an in-memory CommentStore.
type fakeComments struct {
	byID map[primitive.ObjectID]models.Comment
}

func newFakeComments() *fakeComments {
	return &fakeComments{byID: map[primitive.ObjectID]models.Comment{}}
}

func (f *fakeComments) Create(_ context.Context, c *models.Comment) error {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeComments) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Comment, error) {
	out := []models.Comment{}
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	var n int64
	for id, c := range f.byID {
		if c.Post == postID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

// fakeMessages is an in-memory MessageStore without aggregation support,
// so the directory falls back to the scan path.
type fakeMessages struct {
	mu             sync.Mutex
	msgs           []models.Message
	clock          time.Time
	beforeMarkRead func()
	markReadErr    error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{clock: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeMessages) Create(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		f.clock = f.clock.Add(time.Minute)
		m.CreatedAt = f.clock
	}
	m.UpdatedAt = m.CreatedAt
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessages) FindBetween(_ context.Context, a, b primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Message{}
	for _, m := range f.msgs {
		if (m.Sender == a && m.Recipient == b) || (m.Sender == b && m.Recipient == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessages) FindInvolving(_ context.Context, userID primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Message{}
	for _, m := range f.msgs {
		if m.Sender == userID || m.Recipient == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, sender, recipient primitive.ObjectID) (int64, error) {
	if f.beforeMarkRead != nil {
		f.beforeMarkRead()
	}
	if f.markReadErr != nil {
		return 0, f.markReadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.msgs {
		m := &f.msgs[i]
		if m.Sender == sender && m.Recipient == recipient && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) all() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message{}, f.msgs...)
}

// aggregatingMessages adds server-side aggregation on top of fakeMessages.
type aggregatingMessages struct {
	*fakeMessages
	users *fakeUsers
	calls int
}

func (a *aggregatingMessages) AggregateConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	a.calls++
	msgs, _ := a.FindInvolving(ctx, userID)
	profiles, _ := a.users.Profiles(ctx, Counterparts(userID, msgs))
	return GroupConversations(userID, msgs, profiles), nil
}

// fakeImages records uploads and destroys.
type fakeImages struct {
	uploads   []string
	destroyed []string
	uploadErr  error
	destroyErr error
}

func (f *fakeImages) Upload(_ context.Context, r io.Reader, folder string) (models.Image, error) {
	if f.uploadErr != nil {
		return models.Image{}, f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Image{}, err
	}
	id := folder + "/" + primitive.NewObjectID().Hex()
	f.uploads = append(f.uploads, string(data))
	return models.Image{URL: "https://res.cloudinary.com/demo/" + id + ".jpg", PublicID: id}, nil
}

func (f *fakeImages) Destroy(_ context.Context, publicID string) error {
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

// fakeMailer captures codes and can be told to fail.
type fakeMailer struct {
	verification map[string]string
	reset        map[string]string
	err          error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verification: map[string]string{}, reset: map[string]string{}}
}

var errSMTPDown = errors.New("smtp: connection refused")

func (f *fakeMailer) SendVerification(_ context.Context, to, _, otp string) error {
	if f.err != nil {
		return f.err
	}
	f.verification[to] = otp
	return nil
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, _, otp string) error {
	if f.err != nil {
		return f.err
	}
	f.reset[to] = otp
	return nil
}
