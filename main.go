// ChatHub is the backend for a small chat network: tagged identities,
// presence, friendships, a shared feed and friend-gated direct messages.
// This entry point wires configuration, the database pool, migrations, the
// HTTP router and the background sampler, and handles graceful shutdown.
// @title ChatHub API
// @version 1.0
// @description Identity, presence, friendship and messaging API.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/user/chathub-go/auth"
	"github.com/user/chathub-go/background"
	"github.com/user/chathub-go/config"
	"github.com/user/chathub-go/db"
	"github.com/user/chathub-go/feed"
	"github.com/user/chathub-go/friends"
	"github.com/user/chathub-go/presence"
	"github.com/user/chathub-go/privmsg"
	"github.com/user/chathub-go/stats"
	"github.com/user/chathub-go/users"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug(".env file not loaded")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	dbPool, err := db.NewPool(cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create database pool")
	}
	defer dbPool.Close()

	if err := db.RunMigrations(cfg.DB, cfg.Server.MigrationsPath); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Services hold the business logic; handlers adapt them to HTTP.
	authService := auth.NewService(dbPool, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewService(dbPool)
	userHandlers := users.NewHandlers(userService)

	tracker := presence.NewTracker(dbPool)
	presenceHandlers := presence.NewHandlers(tracker, cfg.Presence.OnlineWindow)

	friendService := friends.NewService(dbPool)
	friendHandlers := friends.NewHandlers(friendService, cfg.Presence.OnlineWindow)

	feedService := feed.NewService(dbPool, *cfg.Feed)
	feedHandlers := feed.NewHandlers(feedService)

	privmsgService := privmsg.NewService(dbPool, friendService, *cfg.Feed)
	privmsgHandlers := privmsg.NewHandlers(privmsgService)

	statsService := stats.NewService(dbPool, cfg.Presence.OnlineWindow)
	statsHandlers := stats.NewHandlers(statsService)

	samplerStopChan := make(chan struct{})
	samplerWg := background.StartStatsSampler(statsService, cfg.Server.StatsInterval, samplerStopChan)

	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/refresh", authHandlers.HandleRefreshToken())
	})

	// Public liveness probe; everything else under /api requires a token.
	r.Get("/api/status", statsHandlers.HandleStatus())

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(cfg.Auth))
		// Every authenticated request doubles as a presence heartbeat.
		r.Use(presence.TouchMiddleware(tracker))

		r.Route("/users", func(r chi.Router) {
			r.Get("/online", presenceHandlers.HandleListOnline())
			r.Post("/activity", presenceHandlers.HandleTouch())
			userHandlers.RegisterRoutes(r)
		})
		r.Route("/friends", friendHandlers.RegisterRoutes)
		r.Route("/messages", feedHandlers.RegisterRoutes)
		r.Route("/private", privmsgHandlers.RegisterRoutes)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithField("addr", addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(samplerStopChan)
	samplerWg.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server shutdown failed")
	}
	logrus.Info("Server stopped gracefully")
}
