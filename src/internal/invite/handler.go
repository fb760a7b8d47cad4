package invite

import (
	"casehub-auth-svc/src/internal/auth"
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/models"
	"casehub-auth-svc/src/internal/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Issue(c *gin.Context)
	Accept(c *gin.Context)
}

type handler struct {
	cfg      *config.Configuration
	invites  Service
	sessions session.Service
}

func NewHandler(cfg *config.Configuration, invites Service, sessions session.Service) Handler {
	return &handler{
		cfg:      cfg,
		invites:  invites,
		sessions: sessions,
	}
}

type issueRequest struct {
	Type     string `json:"type" binding:"required"`
	Email    string `json:"email" binding:"required"`
	FirmID   string `json:"firmId"`
	ClientID string `json:"clientId"`
}

func (h *handler) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type and email are required"})
		return
	}

	inviterID := c.GetString("user_id")
	inviterEmail := c.GetString("user_email")

	invite, err := h.invites.Issue(c.Request.Context(), req.Type, req.Email, req.FirmID, req.ClientID, inviterID, inviterEmail)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		case errors.Is(err, models.ErrConfiguration):
			logrus.WithError(err).Error("Invite issue failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Service misconfigured"})
		case errors.Is(err, models.ErrMailPublish):
			// The invite exists but the mail did not go out; report the
			// delivery failure and let the caller resend.
			c.JSON(http.StatusAccepted, gin.H{
				"invite": invite,
				"status": "invite created, mail delivery pending",
			})
		default:
			logrus.WithError(err).Error("Invite issue failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invite": invite})
}

type acceptRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Accept consumes the token, activates the account, and logs the user
// straight in. Activation and session creation are two operations: if
// the second fails the account stays activated and the user signs in
// normally.
func (h *handler) Accept(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and password are required"})
		return
	}

	user, err := h.invites.Accept(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOrExpiredToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if errors.Is(err, models.ErrPasswordRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
			return
		}
		logrus.WithError(err).Error("Invite accept failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	record, err := h.sessions.CreateSession(c.Request.Context(), user.ID, user.Email, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logrus.WithError(err).Error("Failed to create session after activation")
		c.JSON(http.StatusOK, gin.H{
			"user":   user.ToProfile(),
			"status": "activated, please log in",
		})
		return
	}

	token, err := auth.IssueAccessToken(&h.cfg.Security, user.ID, record.ID, user.Email, user.Role)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign access token")
		c.JSON(http.StatusOK, gin.H{
			"user":   user.ToProfile(),
			"status": "activated, please log in",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"session": record,
		"user":    user.ToProfile(),
	})
}
