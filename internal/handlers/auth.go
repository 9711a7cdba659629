package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/middleware"
	"github.com/AnshRaj112/pixora-backend/internal/respond"
	"github.com/AnshRaj112/pixora-backend/internal/services"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthAPI interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.AuthResult, error)
	VerifyAccount(ctx context.Context, userID primitive.ObjectID, otp string) (*services.AuthResult, error)
	ResendOTP(ctx context.Context, userID primitive.ObjectID) error
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, password, confirm string) error
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next, confirm string) (*services.AuthResult, error)
}

type AuthHandler struct {
	svc       AuthAPI
	cookieTTL time.Duration
	secure    bool
	log       logrus.FieldLogger
}

// NewAuthHandler builds the auth endpoints. secure marks the session cookie
// Secure with SameSite=None, for cross-site production frontends.
func NewAuthHandler(svc AuthAPI, cookieTTL time.Duration, secure bool, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{svc: svc, cookieTTL: cookieTTL, secure: secure, log: log}
}

type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	OTP string `json:"otp"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	NewPasswordConfirm string `json:"newPasswordConfirm"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	res, err := h.svc.Signup(ctx, services.SignupInput(req))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	h.sendToken(w, http.StatusCreated, "Registration successful. Check your email for the verification code", res)
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.svc.VerifyAccount(ctx, p.UserID, req.OTP)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	h.sendToken(w, http.StatusOK, "Email has been verified", res)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	if err := h.svc.ResendOTP(ctx, p.UserID); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "A new OTP has been sent to your email", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	h.sendToken(w, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Logout(ctx, middleware.TokenFromRequest(r)); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	http.SetCookie(w, h.cookie("loggedout", time.Now().Add(10*time.Second)))
	respond.OK(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	if err := h.svc.ForgotPassword(ctx, req.Email); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "Password reset OTP is sent to your email", nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.ResetPassword(ctx, req.Email, req.OTP, req.Password, req.PasswordConfirm); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.OK(w, http.StatusOK, "Password reset successfully", nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.svc.ChangePassword(ctx, p.UserID, req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	h.sendToken(w, http.StatusOK, "Password changed successfully", res)
}

// sendToken sets the session cookie and echoes the token in the body for
// clients that use the Authorization header.
func (h *AuthHandler) sendToken(w http.ResponseWriter, status int, message string, res *services.AuthResult) {
	http.SetCookie(w, h.cookie(res.Token, time.Now().Add(h.cookieTTL)))
	respond.JSON(w, status, respond.Envelope{
		Status:  "success",
		Message: message,
		Token:   res.Token,
		Data:    map[string]interface{}{"user": res.User},
	})
}

func (h *AuthHandler) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
