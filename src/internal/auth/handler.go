package auth

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/credential"
	"casehub-auth-svc/src/internal/models"
	"casehub-auth-svc/src/internal/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// invalidCredentialsMessage is the single response body for every failed
// login. Unknown email and wrong password must stay indistinguishable.
const invalidCredentialsMessage = "Invalid email or password"

type Handler interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	LogoutAll(c *gin.Context)
	ListSessions(c *gin.Context)
	RevokeSession(c *gin.Context)
}

type handler struct {
	cfg         *config.Configuration
	credentials credential.Service
	sessions    session.Service
}

func NewHandler(cfg *config.Configuration, credentials credential.Service, sessions session.Service) Handler {
	return &handler{
		cfg:         cfg,
		credentials: credentials,
		sessions:    sessions,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.credentials.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotActive) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
			return
		}
		logrus.WithError(err).Error("Login failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentialsMessage})
		return
	}

	record, err := h.sessions.CreateSession(c.Request.Context(), user.ID, user.Email, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logrus.WithError(err).Error("Failed to create session")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	token, err := IssueAccessToken(&h.cfg.Security, user.ID, record.ID, user.Email, user.Role)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"session": record,
		"user":    user.ToProfile(),
	})
}

func (h *handler) Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.GetString("session_id")

	if err := h.sessions.DestroySession(c.Request.Context(), sessionID, userID); err != nil {
		logrus.WithError(err).Error("Logout failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *handler) LogoutAll(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.sessions.DestroyAllSessions(c.Request.Context(), userID); err != nil {
		logrus.WithError(err).Error("Logout everywhere failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out everywhere"})
}

func (h *handler) ListSessions(c *gin.Context) {
	userID := c.GetString("user_id")

	records, err := h.sessions.ListUserSessions(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list sessions")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": records,
		"current":  c.GetString("session_id"),
	})
}

// RevokeSession deletes one of the caller's own sessions. The ownership
// check inside DestroyUserSession keeps a guessed id from revoking
// someone else's session.
func (h *handler) RevokeSession(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("id")

	ok, err := h.sessions.DestroyUserSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		logrus.WithError(err).Error("Failed to revoke session")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "session revoked"})
}
