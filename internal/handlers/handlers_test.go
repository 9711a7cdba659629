package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/middleware"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

type body struct {
	Status  string                     `json:"status"`
	Kind    string                     `json:"kind"`
	Message string                     `json:"message"`
	Results *int                       `json:"results"`
	Token   string                     `json:"token"`
	Data    map[string]json.RawMessage `json:"data"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b), rec.Body.String())
	return b
}

// serve routes req through a chi router so URL params resolve, optionally
// authenticating as userID.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request, userID primitive.ObjectID) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !userID.IsZero() {
				r = r.WithContext(middleware.WithPrincipal(r.Context(), &middleware.Principal{UserID: userID, Token: "tok"}))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Method(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, v interface{}) *http.Request {
	buf, _ := json.Marshal(v)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	field, filename, contentType, content string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// stubMessaging records the arguments of its last call.
type stubMessaging struct {
	sender, recipient, other primitive.ObjectID
	text, image              string
	err                      error
	conversations            []models.ConversationSummary
	messages                 []models.MessageView
}

func (s *stubMessaging) SendMessage(_ context.Context, senderID, recipientID primitive.ObjectID, text, image string) (*models.MessageView, error) {
	s.sender, s.recipient, s.text, s.image = senderID, recipientID, text, image
	if s.err != nil {
		return nil, s.err
	}
	return &models.MessageView{ID: primitive.NewObjectID(), Text: text, CreatedAt: time.Now()}, nil
}

func (s *stubMessaging) ListMessages(_ context.Context, userID, otherID primitive.ObjectID) ([]models.MessageView, error) {
	s.sender, s.other = userID, otherID
	return s.messages, s.err
}

func (s *stubMessaging) ListConversations(_ context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	s.sender = userID
	return s.conversations, s.err
}

type stubPosts struct {
	caption, image string
	toggled        bool
	post           primitive.ObjectID
	err            error
	deleted        bool
}

func (s *stubPosts) CreatePost(_ context.Context, userID primitive.ObjectID, caption string, image io.Reader) (*models.PostView, error) {
	s.caption = caption
	data, _ := io.ReadAll(image)
	s.image = string(data)
	if s.err != nil {
		return nil, s.err
	}
	return &models.PostView{ID: primitive.NewObjectID(), Caption: caption}, nil
}

func (s *stubPosts) ListPosts(context.Context) ([]models.PostView, error) {
	return []models.PostView{{ID: primitive.NewObjectID()}, {ID: primitive.NewObjectID()}}, s.err
}

func (s *stubPosts) ListUserPosts(_ context.Context, userID primitive.ObjectID) ([]models.PostView, error) {
	return nil, s.err
}

func (s *stubPosts) ToggleLike(_ context.Context, _, postID primitive.ObjectID) (bool, error) {
	s.post = postID
	return s.toggled, s.err
}

func (s *stubPosts) ToggleSave(_ context.Context, _, postID primitive.ObjectID) (bool, error) {
	s.post = postID
	return s.toggled, s.err
}

func (s *stubPosts) AddComment(_ context.Context, userID, postID primitive.ObjectID, text string) (*models.CommentView, error) {
	s.post = postID
	if s.err != nil {
		return nil, s.err
	}
	return &models.CommentView{ID: primitive.NewObjectID(), Text: text}, nil
}

func (s *stubPosts) DeletePost(_ context.Context, _, postID primitive.ObjectID) error {
	s.post = postID
	s.deleted = s.err == nil
	return s.err
}

type stubUsers struct {
	bio     *string
	picture string
	query   string
	err     error
}

func (s *stubUsers) GetProfile(_ context.Context, userID primitive.ObjectID) (*models.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.UserProfile{User: &models.User{ID: userID, Username: "ada", Password: "secret-hash"}}, nil
}

func (s *stubUsers) Me(_ context.Context, userID primitive.ObjectID) (*models.User, error) {
	return &models.User{ID: userID, Username: "ada", OTP: "123456"}, s.err
}

func (s *stubUsers) EditProfile(_ context.Context, userID primitive.ObjectID, bio *string, picture io.Reader) (*models.User, error) {
	s.bio = bio
	if picture != nil {
		data, _ := io.ReadAll(picture)
		s.picture = string(data)
	}
	return &models.User{ID: userID}, s.err
}

func (s *stubUsers) Search(_ context.Context, _ primitive.ObjectID, query string) ([]models.PublicProfile, error) {
	s.query = query
	return []models.PublicProfile{{ID: primitive.NewObjectID(), Username: "adam"}}, s.err
}

func (s *stubUsers) ToggleFollow(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return true, s.err
}

type stubAuth struct {
	signup   services.SignupInput
	token    string
	loggedIn bool
	err      error
}

func (s *stubAuth) result() (*services.AuthResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.AuthResult{User: &models.User{ID: primitive.NewObjectID(), Username: "ada", Password: "hash"}, Token: "jwt-token"}, nil
}

func (s *stubAuth) Signup(_ context.Context, in services.SignupInput) (*services.AuthResult, error) {
	s.signup = in
	return s.result()
}

func (s *stubAuth) VerifyAccount(context.Context, primitive.ObjectID, string) (*services.AuthResult, error) {
	return s.result()
}

func (s *stubAuth) ResendOTP(context.Context, primitive.ObjectID) error { return s.err }

func (s *stubAuth) Login(context.Context, string, string) (*services.AuthResult, error) {
	s.loggedIn = true
	return s.result()
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.token = token
	return s.err
}

func (s *stubAuth) ForgotPassword(context.Context, string) error { return s.err }

func (s *stubAuth) ResetPassword(context.Context, string, string, string, string) error {
	return s.err
}

func (s *stubAuth) ChangePassword(context.Context, primitive.ObjectID, string, string, string) (*services.AuthResult, error) {
	return s.result()
}

var errBoom = apperror.Internal("Something went wrong", io.ErrUnexpectedEOF)
