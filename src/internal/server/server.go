package server

import (
	"casehub-auth-svc/src/clients"
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/dependency"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Start() error {
	gin.SetMode(s.cfg.Server.Mode)
	router := gin.Default()

	mongodb, err := clients.NewMongoDB(&s.cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.Close(ctx)
	}()

	redisClient, err := clients.NewRedisClient(&s.cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	rabbitMQ, err := clients.NewRabbitMQ(&s.cfg.Queue)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()

	if err := rabbitMQ.SetupQueue(); err != nil {
		return err
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, s.cfg)
	SetupRoutes(deps)

	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	log.Infof("Listening on port %s", s.cfg.Server.Port)
	return srv.ListenAndServe()
}
