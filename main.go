package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"learningsite/admin"
	"learningsite/config"
	"learningsite/handlers"
	"learningsite/logger"
	"learningsite/mailer"
	"learningsite/middleware"
	"learningsite/routes"
	"learningsite/services"
)

const codeVersion = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	// Initialize database
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	// Notices live in Redis when it is enabled and answers
	var flash services.FlashStore = services.NewMemoryFlashStore()
	if cfg.RedisEnabled {
		redisClient := config.InitRedis(cfg)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unavailable, keeping notices in memory", "error", err)
		} else {
			flash = services.NewRedisFlashStore(redisClient, time.Hour)
			defer redisClient.Close()
		}
	}

	var mail mailer.Mailer
	if cfg.SendGridAPIKey != "" {
		mail, err = mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.AppName, cfg.DefaultFromEmail, log)
		if err != nil {
			log.Fatal("Failed to configure mailer", "error", err)
		}
	} else {
		mail = mailer.NewConsoleMailer(cfg.AppName, cfg.DefaultFromEmail, log)
	}

	reporter := middleware.NewErrorReporter(cfg.RollbarToken, cfg.Env, codeVersion)
	defer reporter.Close()

	// Initialize services
	userService := services.NewUserService(db, log)
	courseService := services.NewCourseService(db, log)
	stepService := services.NewStepService(db, log)
	authoringService := services.NewAuthoringService(db, log)
	suggestionService := services.NewSuggestionService(mail, cfg.SuggestionRecipient, log)

	// Initialize WebSocket hub
	hub := services.NewHub(log)
	go hub.Run()

	site := admin.NewSite(db, admin.NewContentRegistry(courseService), log)

	// Initialize handlers
	render := handlers.NewRenderer(flash, log)
	h := routes.Handlers{
		Pages:       handlers.NewPageHandler(cfg.AppName, db, render),
		Courses:     handlers.NewCourseHandler(courseService, authoringService, hub, render),
		Steps:       handlers.NewStepHandler(stepService, render),
		Authoring:   handlers.NewAuthoringHandler(authoringService, hub, render),
		Suggestions: handlers.NewSuggestionHandler(suggestionService, render),
		Admin:       handlers.NewAdminHandler(site, render),
		Live:        handlers.NewLiveHandler(hub, authoringService, cfg.AllowedOrigins, render, log),
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.Recovery(log, reporter),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Session(),
		middleware.Authenticate(cfg.JWTSecret, userService, log),
	)

	// Setup routes
	routes.SetupRoutes(router, h, cfg.LoginURL, cfg.StaticDir)

	srv := &http.Server{
		Addr:    cfg.BindAddress + ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
}
