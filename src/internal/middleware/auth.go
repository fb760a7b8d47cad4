package middleware

import (
	"casehub-auth-svc/src/internal/auth"
	"casehub-auth-svc/src/internal/models"
	"casehub-auth-svc/src/internal/session"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	jwtSecret string
	sessions  session.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtSecret string, sessions session.Service) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		sessions:  sessions,
	}
}

// RequireAuth validates the bearer token and touches the session it
// carries. Store outages are 503, never 401: an unreachable store must
// not read as an invalid session.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := m.validateJWTToken(token)
		if err != nil {
			logrus.WithError(err).Debug("JWT token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		record, err := m.sessions.TouchSession(c.Request.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, models.ErrSessionStoreUnavailable) {
				logrus.WithError(err).Error("Session store unavailable")
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error": "Service temporarily unavailable",
				})
				c.Abort()
				return
			}
			logrus.WithError(err).Error("Session validation failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Session validation error",
			})
			c.Abort()
			return
		}

		if record == nil || record.UserID != claims.UserID {
			logrus.WithField("session_id", claims.SessionID).Warn("Session is invalid or expired")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired - please login again",
			})
			c.Abort()
			return
		}

		// Store user info in context
		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		logrus.WithFields(logrus.Fields{
			"user_id":    claims.UserID,
			"session_id": claims.SessionID,
			"user_role":  claims.Role,
		}).Debug("User authenticated successfully")

		c.Next()
	}
}

// RequireRole checks that the authenticated user carries the given role.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoleInterface, exists := c.Get("user_role")
		if !exists {
			logrus.Error("User role not found in context - ensure RequireAuth middleware runs first")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		userRole, ok := userRoleInterface.(string)
		if !ok {
			logrus.Error("Invalid user role format")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid user role format",
			})
			c.Abort()
			return
		}

		if userRole != role {
			userID, _ := c.Get("user_id")
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,
				"user_role": userRole,
			}).Warn("User attempted to access endpoint without required role")

			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access forbidden - insufficient privileges",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractToken extracts JWT token from Authorization header
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	// Extract token from "Bearer <token>" format
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(authHeader, "Bearer ")
}

// validateJWTToken parses and validates the JWT (signature and expiry)
func (m *AuthMiddleware) validateJWTToken(tokenString string) (*auth.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		//verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil {
		//JWT library automatically checks expiration
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	// Check token type (should be access token)
	if claims.TokenType != "access" {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}
