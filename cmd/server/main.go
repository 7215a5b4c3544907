package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"trailquest/internal/api"
	"trailquest/internal/app/service"
	"trailquest/internal/common/security"
	"trailquest/internal/domain/repository"
	"trailquest/internal/platform/cache"
	"trailquest/internal/platform/config"
	"trailquest/internal/platform/database"
	"trailquest/internal/platform/logger"
)

func main() {
	// 1. Load Configuration
	config.Load()

	appLog, err := logger.New(config.AppConfig.LogMode)
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer appLog.Sync()

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	appLog.Info("database connected")

	// 4. Initialize Redis (leaderboard cache)
	cache.ConnectRedis()
	defer cache.CloseRedis()
	appLog.Info("redis connected")

	// 5. Initialize Repositories
	memberRepo := repository.NewPgMemberRepository(database.DB)
	groupRepo := repository.NewPgGroupRepository(database.DB)
	challengeRepo := repository.NewPgChallengeRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(memberRepo, groupRepo)
	challengeService := service.NewChallengeService(challengeRepo, groupRepo, appLog)
	rankingService := service.NewRankingService(memberRepo, groupRepo, cache.RDB, appLog)
	progressionService := service.NewProgressionService(submissionRepo, challengeRepo, memberRepo, rankingService, database.NewTxRunner(database.DB), appLog)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, challengeService, progressionService, rankingService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		appLog.Info("server starting", "port", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("could not listen", "port", config.AppConfig.APIPort, "error", err)
		}
	}()

	<-stop // Wait for interrupt signal

	appLog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("server shutdown failed", "error", err)
	}

	appLog.Info("server stopped gracefully")
}
