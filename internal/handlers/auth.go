package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"waz-calendar/internal/auth"
	"waz-calendar/internal/telemetry"
)

// AuthHandler exposes signup, login and session restore.
type AuthHandler struct {
	auth  auth.Authenticator
	audit *telemetry.AuditEmitter
}

func NewAuthHandler(authenticator auth.Authenticator, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{auth: authenticator, audit: audit}
}

type sessionResponse struct {
	Token     string     `json:"token,omitempty"`
	Username  string     `json:"username"`
	LoginTime time.Time  `json:"login_time"`
	ExpiresAt time.Time  `json:"expires_at"`
	State     auth.State `json:"state"`
}

func newSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{Token: s.Token, Username: s.Username, LoginTime: s.LoginTime, ExpiresAt: s.ExpiresAt, State: auth.StateAfter(nil)}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.auth.Signup(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		respondError(c, err, "signup failed")
		return
	}
	h.audit.Emit(c.Request.Context(), auditRecord(c, telemetry.ActionSignup, "account created", profile.Username))
	c.JSON(http.StatusCreated, gin.H{"username": profile.Username, "created_at": profile.CreatedAt})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrAuthFailed) {
		h.audit.Emit(c.Request.Context(), auditRecord(c, telemetry.ActionLoginFailed, "invalid credentials", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password", "state": auth.StateAfter(err)})
		return
	}
	if err != nil {
		respondError(c, err, "login failed")
		return
	}
	h.audit.Emit(c.Request.Context(), auditRecord(c, telemetry.ActionLogin, "session issued", session.Username))
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// Logout always succeeds so clients can drop a token that is already expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		var username string
		if session, err := h.auth.Verify(token); err == nil {
			username = session.Username
		}
		h.auth.Logout(token)
		h.audit.Emit(c.Request.Context(), auditRecord(c, telemetry.ActionLogout, "session revoked", username))
	}
	c.Status(http.StatusNoContent)
}

// Session restores a stored session if it is still inside the auto-login window.
func (h *AuthHandler) Session(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}
	session, err := h.auth.Restore(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, "session restore failed")
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
