// Package main is the entry point for the party game bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"party-game-bot/internal/bot"
	"party-game-bot/internal/config"
	"party-game-bot/internal/oracle"
	"party-game-bot/internal/photo"
	"party-game-bot/internal/pkg/db"
	"party-game-bot/internal/pkg/lock"
	"party-game-bot/internal/repository"
	"party-game-bot/internal/seed"
	"party-game-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Load the universe catalog and seed the team registry
	catalog, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Seed.Path).Msg("Failed to load universe catalog")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	teamRepo := repository.NewTeamRepository(dbPool.Pool)
	subRepo := repository.NewSubmissionRepository(dbPool.Pool)
	adminRepo := repository.NewAdminRepository(dbPool.Pool)

	if _, err := seed.SeedTeams(ctx, catalog, teamRepo); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed teams")
	}

	// Initialize photo archive
	photoStore, err := photo.NewStore(cfg.Photos.BasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Photos.BasePath).Msg("Failed to initialize photo store")
	}

	// Initialize the verification oracle
	verifier := oracle.NewVisionClient(cfg.Oracle)

	// Initialize services
	identityService := service.NewIdentityService(userRepo)
	scoringService := service.NewScoringService(subRepo, teamRepo, verifier, catalog, photoStore, cfg.Game)
	leaderboardService := service.NewLeaderboardService(userRepo, teamRepo, subRepo)
	adminService := service.NewAdminService(identityService, userRepo, teamRepo, subRepo, adminRepo)

	userLock := lock.NewUserLock()

	deps := &bot.Dependencies{
		Config:      cfg,
		Identity:    identityService,
		Scoring:     scoringService,
		Leaderboard: leaderboardService,
		Admin:       adminService,
		Catalog:     catalog,
		UserLock:    userLock,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
