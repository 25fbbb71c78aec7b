package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/config"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/directory"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/mailer"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/middleware"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/session"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/token"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/utils"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "RefreshToken"

// AuthHandler handles registration, login, token refresh, and password flows.
type AuthHandler struct {
	Sessions  *session.Manager
	Directory directory.Directory
	OneTime   token.OneTimeTokens
	Outbox    mailer.Outbox
	Cfg       *config.Config
}

func NewAuthHandler(sessions *session.Manager, dir directory.Directory, oneTime token.OneTimeTokens, outbox mailer.Outbox, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Directory: dir, OneTime: oneTime, Outbox: outbox, Cfg: cfg}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	FirstName   string     `json:"firstName" binding:"required"`
	LastName    string     `json:"lastName" binding:"required"`
	UserName    string     `json:"userName" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// Register creates an unconfirmed account and queues a confirmation email.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user := models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		UserName:    req.UserName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
	}
	if err := h.Directory.Register(c.Request.Context(), &user, req.Password); err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			utils.BadRequest(c, "User with this email already exists")
			return
		}
		utils.InternalServerError(c, "Failed to create user")
		return
	}

	confirmToken, err := h.OneTime.Generate(user.ID, token.PurposeEmailConfirm)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate confirmation token")
		return
	}
	if err := h.Outbox.Enqueue(c.Request.Context(), user.Email,
		"Confirmation of registration",
		confirmEmailBody(h.Cfg.Origin, confirmToken, user.Email)); err != nil {
		utils.InternalServerError(c, "Failed to queue confirmation email")
		return
	}

	utils.Success(c, "Registration successful, confirmation email queued", nil)
}

// ConfirmRequest carries an email confirmation token.
type ConfirmRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

// Confirm validates the emailed token and marks the address confirmed.
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Directory.FindByEmail(c.Request.Context(), req.Email)
	if err != nil || user.EmailConfirmed || !h.OneTime.Validate(user.ID, token.PurposeEmailConfirm, req.Token) {
		utils.BadRequest(c, "INVALID_TOKEN")
		return
	}
	if err := h.Directory.ConfirmEmail(c.Request.Context(), user.ID); err != nil {
		utils.InternalServerError(c, "Failed to confirm email")
		return
	}
	utils.NoContent(c)
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and opens a session: access token in the body,
// refresh token in an HTTP-only cookie. Every rejection looks the same.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pair, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) || errors.Is(err, session.ErrAccountNotUsable) {
			utils.BadRequest(c, "LOGIN_FAILED")
			return
		}
		utils.InternalServerError(c, "Login could not be processed")
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	utils.Success(c, "Login successful", gin.H{"token": pair.AccessToken})
}

// Refresh rotates the refresh-token cookie and returns a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	presented, err := c.Cookie(RefreshCookieName)
	if err != nil || presented == "" {
		utils.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	pair, err := h.Sessions.Rotate(c.Request.Context(), presented, c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			utils.Unauthorized(c, "Invalid or expired refresh token")
			return
		}
		utils.InternalServerError(c, "Refresh could not be processed")
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	utils.Success(c, "Access token refreshed", gin.H{"token": pair.AccessToken})
}

// Logout revokes the refresh token in the cookie and clears it. Idempotent.
func (h *AuthHandler) Logout(c *gin.Context) {
	if presented, err := c.Cookie(RefreshCookieName); err == nil && presented != "" {
		if err := h.Sessions.Logout(c.Request.Context(), presented); err != nil {
			utils.InternalServerError(c, "Logout could not be processed")
			return
		}
	}
	h.clearRefreshCookie(c)
	utils.NoContent(c)
}

// LogoutAll revokes every refresh token belonging to the caller.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if err := h.Sessions.LogoutEverywhere(c.Request.Context(), userID); err != nil {
		utils.InternalServerError(c, "Logout could not be processed")
		return
	}
	h.clearRefreshCookie(c)
	utils.NoContent(c)
}

// UserInfoResponse mirrors the original anonymous-tolerant identity summary.
type UserInfoResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsAdmin         bool   `json:"isAdmin"`
}

// UserInfo reports who the caller is; anonymous callers get a zero summary.
func (h *AuthHandler) UserInfo(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, UserInfoResponse{})
		return
	}

	user, err := h.Directory.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusOK, UserInfoResponse{})
			return
		}
		utils.InternalServerError(c, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, UserInfoResponse{
		ID:              user.ID,
		Name:            user.DisplayName(),
		IsAuthenticated: true,
		IsAdmin:         user.IsAdmin,
	})
}

// ForgotPasswordRequest carries the account email.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword queues a reset email. The response is the same whether or
// not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Directory.FindByEmail(c.Request.Context(), req.Email)
	if err == nil {
		resetToken, tokenErr := h.OneTime.Generate(user.ID, token.PurposePasswordReset)
		if tokenErr == nil {
			_ = h.Outbox.Enqueue(c.Request.Context(), user.Email,
				"Password Reset Request",
				resetEmailBody(h.Cfg.Origin, resetToken, user.Email))
		}
	} else if !errors.Is(err, directory.ErrNotFound) {
		utils.InternalServerError(c, "Request could not be processed")
		return
	}

	utils.Success(c, "If the account exists, a password reset email has been sent.", nil)
}

// ResetPasswordRequest carries the reset token and new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword validates the reset token, sets the new password, and
// revokes every session the account had.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Directory.FindByEmail(c.Request.Context(), req.Email)
	if err != nil || !h.OneTime.Validate(user.ID, token.PurposePasswordReset, req.Token) {
		utils.BadRequest(c, "RESET_FAILED")
		return
	}
	if err := h.Directory.SetPassword(c.Request.Context(), user.ID, req.NewPassword); err != nil {
		utils.InternalServerError(c, "Failed to reset password")
		return
	}
	if err := h.Sessions.LogoutEverywhere(c.Request.Context(), user.ID); err != nil {
		utils.InternalServerError(c, "Failed to revoke sessions")
		return
	}
	utils.Success(c, "Password reset successful.", nil)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		RefreshCookieName,
		value,
		h.Cfg.JWT.RefreshTokenTTLDays*24*60*60,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		RefreshCookieName,
		"",
		-1,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)
}

func confirmEmailBody(origin, confirmToken, email string) string {
	return fmt.Sprintf(
		`<html><body><h2>Confirm your registration</h2><p>Click the link to verify your email address:</p><a href="%s/confirm?token=%s&email=%s">Confirm e-mail</a><p>If you did not register on Recycle!, please ignore this email.</p></body></html>`,
		origin, url.QueryEscape(confirmToken), url.QueryEscape(email))
}

func resetEmailBody(origin, resetToken, email string) string {
	return fmt.Sprintf(
		`<html><body><h2>Password Reset Request</h2><p>If you requested a password reset, click the link below:</p><a href="%s/reset-password?token=%s&email=%s">Reset Password</a><p>If you did not request a password reset, please ignore this email.</p></body></html>`,
		origin, url.QueryEscape(resetToken), url.QueryEscape(email))
}
