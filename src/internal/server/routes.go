package server

import (
	"casehub-auth-svc/src/clients"
	"casehub-auth-svc/src/internal/credential"
	"casehub-auth-svc/src/internal/dependency"
	"casehub-auth-svc/src/internal/middleware"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupProtectedRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Info("Health check endpoint requested")

		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		log.Info("Detailed health check endpoint requested")

		c.JSON(200, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(mongodb, c)),
					"redis":   getStatus(isRedisConnected(redisClient.Client, c)),
				},
				"services": gin.H{
					"auth":    "operational",
					"session": "operational",
					"invite":  "operational",
				},
			},
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	// API status endpoint
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     "casehub-auth-svc",
		})
	})

	router.POST("/api/v1/auth/login",
		setRouteName("login"),
		deps.AuthHandler.Login)

	router.POST("/api/v1/invites/accept",
		setRouteName("acceptInvite"),
		deps.InviteHandler.Accept)
}

func setupProtectedRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := middleware.NewAuthMiddleware(
		deps.Config.Security.JwtKey,
		deps.SessionService,
	)

	authHandler := deps.AuthHandler

	api := router.Group("/api/v1", authMiddleware.RequireAuth())
	{
		api.POST("/auth/logout",
			setRouteName("logout"),
			authHandler.Logout)

		api.POST("/auth/logout-all",
			setRouteName("logoutAll"),
			authHandler.LogoutAll)

		api.GET("/sessions",
			setRouteName("listSessions"),
			authHandler.ListSessions)

		api.DELETE("/sessions/:id",
			setRouteName("revokeSession"),
			authHandler.RevokeSession)

		api.POST("/invites",
			setRouteName("issueInvite"),
			authMiddleware.RequireRole(credential.RoleAttorney),
			deps.InviteHandler.Issue)

		api.GET("/admin/accounts/stats",
			setRouteName("getAccountStats"),
			authMiddleware.RequireRole(credential.RoleAttorney),
			deps.CredentialHandler.GetAccountStats)

		api.PATCH("/admin/accounts/:id",
			setRouteName("updateAccount"),
			authMiddleware.RequireRole(credential.RoleAttorney),
			deps.CredentialHandler.UpdateAccount)
	}
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func enableCORS(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func getStatus(ok bool) string {
	if ok {
		return "operational"
	}
	return "degraded"
}

func isMongoConnected(mongodb *clients.MongoDB, c *gin.Context) bool {
	if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
		return false
	}
	return true
}

func isRedisConnected(redisClient *redis.Client, c *gin.Context) bool {
	if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
		return false
	}
	return true
}
