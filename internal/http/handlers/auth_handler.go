package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/oakline/staffdesk/internal/domain"
	"github.com/oakline/staffdesk/internal/http/response"
	"github.com/oakline/staffdesk/internal/platform/auth"
	"github.com/oakline/staffdesk/internal/platform/mailer"
	"github.com/oakline/staffdesk/internal/repo/postgres"
	"github.com/oakline/staffdesk/pkg/events"
	"github.com/oakline/staffdesk/pkg/logger"
)

type AuthHandler struct {
	Users    postgres.UsersRepo
	Resets   postgres.ResetRepo
	EmailSvc mailer.Service
	Bus      events.Publisher

	JWTSecret      string
	BaseURL        string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	// ExposeResetInResponse is decided once at startup from the explicit
	// environment flag, never inferred from missing SMTP configuration.
	ExposeResetInResponse bool

	// Collapses concurrent reset requests for the same account into a
	// single token issuance.
	resetGroup singleflight.Group
}

func NewAuthHandler(
	users postgres.UsersRepo,
	resets postgres.ResetRepo,
	emailSvc mailer.Service,
	bus events.Publisher,
	jwtSecret, baseURL string,
	accessTokenTTL, resetTokenTTL time.Duration,
	exposeResetInResponse bool,
) *AuthHandler {
	return &AuthHandler{
		Users:                 users,
		Resets:                resets,
		EmailSvc:              emailSvc,
		Bus:                   bus,
		JWTSecret:             jwtSecret,
		BaseURL:               baseURL,
		AccessTokenTTL:        accessTokenTTL,
		ResetTokenTTL:         resetTokenTTL,
		ExposeResetInResponse: exposeResetInResponse,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "login lookup failed", "error", err)
		response.InternalError(w, "Login failed")
		return
	}
	if user == nil {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	valid, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil {
		logger.ErrorContext(r.Context(), "password compare failed", "error", err, "user_id", user.ID)
		response.InternalError(w, "Login failed")
		return
	}
	if !valid {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, auth.ScopeForRole(user.Role), h.JWTSecret, h.AccessTokenTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to mint access token", "error", err, "user_id", user.ID)
		response.InternalError(w, "Login failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"login": &domain.LoginResponse{
			AccessToken: token,
			ExpiresIn:   int64(h.AccessTokenTTL.Seconds()),
			User:        user.ToUserInfo(),
		},
	})
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	in.Email = domain.NormalizeEmail(in.Email)
	if in.Email == "" {
		response.BadRequest(w, "Email is required")
		return
	}

	user, err := h.Users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "forgot-password lookup failed", "error", err)
		response.InternalError(w, "Failed to process request")
		return
	}

	// Unknown account: answer success with no state change, so responses do
	// not reveal which emails are registered.
	if user == nil {
		response.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	key := fmt.Sprintf("reset:%d", user.ID)
	v, err, _ := h.resetGroup.Do(key, func() (interface{}, error) {
		raw, hash, err := auth.NewResetToken()
		if err != nil {
			return "", err
		}
		if err := h.Resets.Create(r.Context(), user.ID, hash, time.Now().Add(h.ResetTokenTTL)); err != nil {
			return "", err
		}
		return raw, nil
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to issue reset token", "error", err, "user_id", user.ID)
		response.InternalError(w, "Failed to process request")
		return
	}
	rawToken := v.(string)
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.BaseURL, rawToken)

	if err := h.Bus.Publish(r.Context(), events.PasswordResetRequested, events.PasswordResetRequestedEvent{
		UserID:      user.ID,
		Email:       user.Email,
		RequestedAt: time.Now().UTC(),
	}); err != nil {
		logger.WarnContext(r.Context(), "failed to publish reset event", "error", err)
	}

	if err := h.EmailSvc.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		// Logged, never retried, and the request still succeeds.
		logger.ErrorContext(r.Context(), "failed to send reset email", "error", err, "user_id", user.ID)
	}

	out := map[string]any{"success": true}
	if h.ExposeResetInResponse {
		out["resetUrl"] = resetURL
		out["resetToken"] = rawToken
	}
	response.WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if err := in.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID, err := h.Resets.Consume(r.Context(), auth.HashToken(in.Token))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to consume reset token", "error", err)
		response.InternalError(w, "Failed to reset password")
		return
	}
	if userID == 0 {
		response.WriteError(w, http.StatusBadRequest, "Invalid or expired reset token", response.CodeExpiredToken)
		return
	}

	hash, err := argon2id.CreateHash(in.NewPassword, argon2id.DefaultParams)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to hash password", "error", err, "user_id", userID)
		response.InternalError(w, "Failed to reset password")
		return
	}

	if err := h.Users.UpdatePassword(r.Context(), userID, hash); err != nil {
		logger.ErrorContext(r.Context(), "failed to update password", "error", err, "user_id", userID)
		response.InternalError(w, "Failed to reset password")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password updated successfully",
	})
}
