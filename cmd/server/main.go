package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AnshRaj112/pixora-backend/internal/config"
	"github.com/AnshRaj112/pixora-backend/internal/database"
	"github.com/AnshRaj112/pixora-backend/internal/handlers"
	"github.com/AnshRaj112/pixora-backend/internal/logging"
	"github.com/AnshRaj112/pixora-backend/internal/mailer"
	"github.com/AnshRaj112/pixora-backend/internal/metrics"
	"github.com/AnshRaj112/pixora-backend/internal/repository"
	"github.com/AnshRaj112/pixora-backend/internal/routes"
	"github.com/AnshRaj112/pixora-backend/internal/services"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.IsProduction())
	if envErr != nil {
		log.Debug("no .env file found")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase, log); err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer database.Disconnect()

	if err := database.ConnectRedis(cfg.RedisURI, log); err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer database.DisconnectRedis()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureIndexes(indexCtx, database.DB); err != nil {
		log.WithError(err).Warn("failed to ensure MongoDB indexes")
	}
	cancel()

	userRepo := repository.NewUserRepository(database.DB)
	postRepo := repository.NewPostRepository(database.DB)
	commentRepo := repository.NewCommentRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)

	var images services.ImageStore
	if cfg.CloudinaryConfigured() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.WithError(err).Warn("image uploads will not be available")
		} else {
			images = cld
		}
	} else {
		log.Warn("Cloudinary credentials not found, image uploads will not be available")
	}

	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
	}, log)

	sessions := services.NewSessionManager(cfg.JWTSecret, cfg.JWTExpiresIn, database.RedisClient)
	cache := services.NewConversationCache(database.RedisClient, cfg.ConversationTTL)

	authSvc := services.NewAuthService(userRepo, mail, sessions, m, log)
	userSvc := services.NewUserService(userRepo, postRepo, images, cfg.CloudinaryFolder, log)
	postSvc := services.NewPostService(postRepo, commentRepo, userRepo, images, cfg.CloudinaryFolder, m, log)
	messageSvc := services.NewMessagingService(messageRepo, userRepo, cache, m, log)

	checks := map[string]handlers.Check{
		"mongo": func(ctx context.Context) error { return database.Client.Ping(ctx, nil) },
	}
	if database.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return database.RedisClient.Ping(ctx).Err() }
	}

	router := routes.NewRouter(routes.Deps{
		Auth:     handlers.NewAuthHandler(authSvc, cfg.CookieExpiresIn, cfg.IsProduction(), log),
		Users:    handlers.NewUserHandler(userSvc, log),
		Posts:    handlers.NewPostHandler(postSvc, log),
		Messages: handlers.NewMessageHandler(messageSvc, log),
		Health:   handlers.Health(checks),

		Sessions: sessions,
		Finder:   userRepo,

		Redis:    database.RedisClient,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Log:      log,

		AllowedOrigins:  cfg.AllowedOrigins,
		AllowedHost:     cfg.AllowedHost,
		TrustProxy:      cfg.TrustProxy,
		Production:      cfg.IsProduction(),
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Pixora backend running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
