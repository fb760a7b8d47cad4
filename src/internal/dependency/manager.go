package dependency

import (
	"casehub-auth-svc/src/clients"
	"casehub-auth-svc/src/internal/auth"
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/credential"
	"casehub-auth-svc/src/internal/device"
	"casehub-auth-svc/src/internal/invite"
	"casehub-auth-svc/src/internal/mailer"
	"casehub-auth-svc/src/internal/session"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router            *gin.Engine
	Config            *config.Configuration
	Mongodb           *clients.MongoDB
	Redis             *clients.RedisClient
	RabbitMQ          *clients.RabbitMQ
	CredentialService credential.Service
	CredentialHandler credential.Handler
	SessionService    session.Service
	AuthHandler       auth.Handler
	InviteService     invite.Service
	InviteHandler     invite.Handler
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {

	statsCache := credential.NewStatsCache(redisClient.Client, cfg)
	userRepo := credential.NewUserRepository(mongodb, cfg.Database.UserCollection)
	credentialService := credential.NewUserService(userRepo, statsCache, cfg)
	credentialHandler := credential.NewHandler(credentialService)

	sessionStore := session.NewRedisStore(redisClient.Client)
	deviceParser := device.NewParser()
	geoClient := clients.NewGeoClient(&cfg.Geo)
	sessionService := session.NewSessionService(sessionStore, deviceParser, geoClient, cfg)

	mail := mailer.New(rabbitMQ.Channel, cfg)
	inviteRepo := invite.NewInviteRepository(mongodb, cfg.Database.InviteCollection)
	inviteService := invite.NewInviteService(inviteRepo, credentialService, mail, cfg)
	inviteHandler := invite.NewHandler(cfg, inviteService, sessionService)

	authHandler := auth.NewHandler(cfg, credentialService, sessionService)

	return &Manager{
		Router:            router,
		Config:            cfg,
		Mongodb:           mongodb,
		Redis:             redisClient,
		RabbitMQ:          rabbitMQ,
		CredentialService: credentialService,
		CredentialHandler: credentialHandler,
		SessionService:    sessionService,
		AuthHandler:       authHandler,
		InviteService:     inviteService,
		InviteHandler:     inviteHandler,
	}
}
