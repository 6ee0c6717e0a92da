package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	appointmentHandler "github.com/docline/consult-api/internal/handler/appointment"
	healthHandler "github.com/docline/consult-api/internal/handler/health"
	promHandler "github.com/docline/consult-api/internal/handler/prometheus"
	ratingHandler "github.com/docline/consult-api/internal/handler/rating"
	scheduleHandler "github.com/docline/consult-api/internal/handler/schedule"
	sessionHandler "github.com/docline/consult-api/internal/handler/session"

	"github.com/docline/consult-api/internal/config"
	"github.com/docline/consult-api/internal/email"
	"github.com/docline/consult-api/internal/middleware"
	"github.com/docline/consult-api/internal/repository/postgres"
	"github.com/docline/consult-api/internal/router"
	appointmentService "github.com/docline/consult-api/internal/service/appointment"
	eventService "github.com/docline/consult-api/internal/service/event"
	notificationService "github.com/docline/consult-api/internal/service/notification"
	ratingService "github.com/docline/consult-api/internal/service/rating"
	scheduleService "github.com/docline/consult-api/internal/service/schedule"
	sessionService "github.com/docline/consult-api/internal/service/session"
	"github.com/docline/consult-api/pkg/auth"
	"github.com/docline/consult-api/pkg/logger"
	"github.com/docline/consult-api/pkg/metrics"
	"github.com/docline/consult-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	location, err := time.LoadLocation(cfg.Clinic.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Clinic.Timezone).Msg("invalid clinic timezone")
	}

	if err := validator.RegisterDomainFormats(); err != nil {
		log.Fatal().Err(err).Msg("failed to register request validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	eventSvc := eventService.NewService(outboxRepo, appLogger)

	var notifier notificationService.Service
	if cfg.Email.Enabled {
		notifier = notificationService.NewService(email.NewSMTPSender(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}))
	} else {
		notifier = notificationService.NopService{}
	}

	// Services
	scheduleSvc := scheduleService.NewService(scheduleRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, scheduleRepo, eventSvc, notifier, appLogger)
	sessionSvc := sessionService.NewService(chatRepo, appointmentRepo, eventSvc, location)
	ratingSvc := ratingService.NewService(ratingRepo, chatRepo, appointmentRepo, eventSvc, location)

	appMetrics := metrics.NewMetrics(cfg.Metrics.Prefix, "api")

	authMiddleware := middleware.NewAuthMiddleware(auth.NewVerifier(cfg.JWT.Secret))

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		promHandler.New(),
		router.Config{
			RateLimit:     rate.Limit(cfg.Server.RateLimit),
			RateBurst:     cfg.Server.RateBurst,
			CORSConfig:    corsConfig(cfg.Server.AllowedOrigins),
			MetricsPrefix: cfg.Metrics.Prefix,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
		scheduleHandler.NewHandler(scheduleSvc, authMiddleware),
		appointmentHandler.NewHandler(appointmentSvc, authMiddleware),
		sessionHandler.NewHandler(sessionSvc, appointmentSvc, ratingSvc, appMetrics),
		ratingHandler.NewHandler(ratingSvc, authMiddleware),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func corsConfig(origins []string) middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	return cfg
}
