package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func tokenCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	return nil
}

func TestSignupSetsCookie(t *testing.T) {
	svc := &stubAuth{}
	h := NewAuthHandler(svc, 24*time.Hour, false, quietLogger())

	req := jsonRequest(http.MethodPost, "/signup", SignupRequest{
		Username: "ada", Email: "ada@example.com", Password: "password1", PasswordConfirm: "password1",
	})
	rec := serve(http.MethodPost, "/signup", h.Signup, req, primitive.NilObjectID)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ada@example.com", svc.signup.Email)
	assert.Equal(t, "password1", svc.signup.PasswordConfirm)

	b := decodeBody(t, rec)
	assert.Equal(t, "jwt-token", b.Token)
	assert.NotContains(t, rec.Body.String(), `"hash"`)

	c := tokenCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "jwt-token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
}

func TestSecureCookie(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, time.Hour, true, quietLogger())

	req := jsonRequest(http.MethodPost, "/login", LoginRequest{Email: "ada@example.com", Password: "password1"})
	rec := serve(http.MethodPost, "/login", h.Login, req, primitive.NilObjectID)

	require.Equal(t, http.StatusOK, rec.Code)
	c := tokenCookie(rec)
	require.NotNil(t, c)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}

func TestLoginFailure(t *testing.T) {
	svc := &stubAuth{err: apperror.Auth("Incorrect email or password")}
	h := NewAuthHandler(svc, time.Hour, false, quietLogger())

	req := jsonRequest(http.MethodPost, "/login", LoginRequest{Email: "ada@example.com", Password: "nope"})
	rec := serve(http.MethodPost, "/login", h.Login, req, primitive.NilObjectID)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, tokenCookie(rec))
	assert.Equal(t, "Incorrect email or password", decodeBody(t, rec).Message)
}

func TestLogoutRevokesPresentedToken(t *testing.T) {
	svc := &stubAuth{}
	h := NewAuthHandler(svc, time.Hour, false, quietLogger())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := serve(http.MethodPost, "/logout", h.Logout, req, primitive.NilObjectID)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc.def.ghi", svc.token)
	c := tokenCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "loggedout", c.Value)
}

func TestVerifyRequiresLogin(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, time.Hour, false, quietLogger())

	req := jsonRequest(http.MethodPost, "/verify", VerifyRequest{OTP: "123456"})
	rec := serve(http.MethodPost, "/verify", h.Verify, req, primitive.NilObjectID)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(http.MethodPost, "/verify", h.Verify, jsonRequest(http.MethodPost, "/verify", VerifyRequest{OTP: "123456"}), primitive.NewObjectID())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOTPErrorsAreBadRequests(t *testing.T) {
	svc := &stubAuth{err: apperror.Auth("Invalid or expired OTP").WithStatus(http.StatusBadRequest)}
	h := NewAuthHandler(svc, time.Hour, false, quietLogger())

	req := jsonRequest(http.MethodPost, "/reset-password", ResetPasswordRequest{Email: "ada@example.com", OTP: "000000"})
	rec := serve(http.MethodPost, "/reset-password", h.ResetPassword, req, primitive.NilObjectID)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperror.KindAuth), decodeBody(t, rec).Kind)
}

func TestForgotPasswordDependencyFailure(t *testing.T) {
	svc := &stubAuth{err: apperror.Dependency("There is an error sending email", errBoom)}
	h := NewAuthHandler(svc, time.Hour, false, quietLogger())

	req := jsonRequest(http.MethodPost, "/forget-password", ForgotPasswordRequest{Email: "ada@example.com"})
	rec := serve(http.MethodPost, "/forget-password", h.ForgotPassword, req, primitive.NilObjectID)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec).Status)
}
