package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/apperror"
	"github.com/AnshRaj112/pixora-backend/internal/metrics"
	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/AnshRaj112/pixora-backend/internal/repository"
	"github.com/AnshRaj112/pixora-backend/pkg/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sessions issues and revokes login sessions. Satisfied by *SessionManager.
type Sessions interface {
	Issue(ctx context.Context, userID primitive.ObjectID) (string, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID primitive.ObjectID) error
}

var _ Sessions = (*SessionManager)(nil)

type SignupInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// AuthResult is a user together with a freshly issued session token.
type AuthResult struct {
	User  *models.User
	Token string
}

// AuthService handles registration, verification, login and passwords.
type AuthService struct {
	users    UserStore
	mailer   Mailer
	sessions Sessions
	metrics  *metrics.Metrics
	log      logrus.FieldLogger

	now func() time.Time
	otp func() (string, error)
}

func NewAuthService(users UserStore, mailer Mailer, sessions Sessions, m *metrics.Metrics, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:    users,
		mailer:   mailer,
		sessions: sessions,
		metrics:  m,
		log:      log.WithField("service", "auth"),
		now:      time.Now,
		otp:      GenerateOTP,
	}
}

// Signup creates an unverified user and mails a 24h verification code. If the
// mail cannot be sent the user is removed again.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	username := utils.NormalizeUsername(in.Username)
	if err := utils.ValidateUsername(username); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	email, err := utils.NormalizeEmail(in.Email)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := utils.ValidatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal("Failed to create account", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("Failed to create account", err)
	}
	code, err := s.otp()
	if err != nil {
		return nil, apperror.Internal("Failed to create account", err)
	}
	expires := s.now().Add(VerificationTTL)

	user := &models.User{
		Username:   username,
		Email:      email,
		Password:   hash,
		OTP:        code,
		OTPExpires: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, apperror.Internal("Failed to create account", err)
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, code); err != nil {
		s.metrics.EmailFailed("verification")
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.log.WithError(delErr).WithField("user_id", user.ID.Hex()).Error("rollback of unverified user failed")
		}
		return nil, apperror.Dependency("There is an error sending the email. Try again", err)
	}

	return s.issue(ctx, user)
}

// VerifyAccount checks the verification code of userID and marks it verified.
func (s *AuthService) VerifyAccount(ctx context.Context, userID primitive.ObjectID, otp string) (*AuthResult, error) {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return nil, apperror.Validation("OTP is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, msgUserNotFound)
	}

	if !codesMatch(user.OTP, otp) {
		return nil, apperror.Auth("Invalid OTP").WithStatus(http.StatusBadRequest)
	}
	if user.OTPExpires == nil || s.now().After(*user.OTPExpires) {
		if err := s.users.SetOTP(ctx, userID, "", time.Time{}); err != nil {
			s.log.WithError(err).WithField("user_id", userID.Hex()).Warn("expired otp not cleared")
		}
		return nil, apperror.Auth("OTP has expired. Please request a new OTP").WithStatus(http.StatusBadRequest)
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return nil, storeError(err, msgUserNotFound)
	}
	user.IsVerified = true
	user.OTP, user.OTPExpires = "", nil
	return s.issue(ctx, user)
}

// ResendOTP issues a fresh verification code. The code is cleared again if it
// cannot be delivered.
func (s *AuthService) ResendOTP(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return storeError(err, msgUserNotFound)
	}
	if user.IsVerified {
		return apperror.Validation("This account is already verified")
	}

	code, err := s.otp()
	if err != nil {
		return apperror.Internal("Failed to generate OTP", err)
	}
	if err := s.users.SetOTP(ctx, userID, code, s.now().Add(VerificationTTL)); err != nil {
		return storeError(err, msgUserNotFound)
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, code); err != nil {
		s.metrics.EmailFailed("verification")
		if clearErr := s.users.SetOTP(ctx, userID, "", time.Time{}); clearErr != nil {
			s.log.WithError(clearErr).Error("clearing undelivered OTP failed")
		}
		return apperror.Dependency("There is an error sending the email. Try again", err)
	}
	return nil
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.Validation("Please provide email and password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Auth("Incorrect email or password")
	}
	if err != nil {
		return nil, apperror.Internal("Failed to log in", err)
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, apperror.Auth("Incorrect email or password")
	}
	return s.issue(ctx, user)
}

// Logout revokes the presented session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return apperror.Internal("Failed to log out", err)
	}
	return nil
}

// ForgotPassword mails a reset code valid for PasswordResetTTL.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperror.Validation("Email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storeError(err, "No user found with this email")
	}

	code, err := s.otp()
	if err != nil {
		return apperror.Internal("Failed to generate OTP", err)
	}
	if err := s.users.SetResetOTP(ctx, user.ID, code, s.now().Add(PasswordResetTTL)); err != nil {
		return storeError(err, msgUserNotFound)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, code); err != nil {
		s.metrics.EmailFailed("password_reset")
		if clearErr := s.users.SetResetOTP(ctx, user.ID, "", time.Time{}); clearErr != nil {
			s.log.WithError(clearErr).Error("clearing undelivered reset OTP failed")
		}
		return apperror.Dependency("There was an error sending the password reset email. Please try again later", err)
	}
	return nil
}

// ResetPassword consumes a valid reset code and sets a new password. All
// existing sessions of the user are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, password, confirm string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return apperror.Validation("Email and OTP are required")
	}
	if err := utils.ValidatePassword(password, confirm); err != nil {
		return apperror.Validation(err.Error())
	}

	user, err := s.users.FindByResetOTP(ctx, email, otp, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Auth("Invalid or expired OTP").WithStatus(http.StatusBadRequest)
	}
	if err != nil {
		return apperror.Internal("Failed to reset password", err)
	}

	return s.setPassword(ctx, user.ID, password)
}

// ChangePassword replaces the password of userID after checking the current
// one, revokes other sessions and returns a new token.
func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next, confirm string) (*AuthResult, error) {
	if current == "" {
		return nil, apperror.Validation("Current password is required")
	}
	if err := utils.ValidatePassword(next, confirm); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if current == next {
		return nil, apperror.Validation("New password must be different from the current password")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, msgUserNotFound)
	}
	ok, err := utils.VerifyPassword(current, user.Password)
	if err != nil || !ok {
		return nil, apperror.Auth("Current password is incorrect").WithStatus(http.StatusBadRequest)
	}

	if err := s.setPassword(ctx, userID, next); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *AuthService) setPassword(ctx context.Context, userID primitive.ObjectID, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperror.Internal("Failed to update password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storeError(err, msgUserNotFound)
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID.Hex()).Warn("revoking sessions after password change failed")
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("Failed to create session", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func codesMatch(stored, given string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
