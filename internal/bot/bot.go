// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"party-game-bot/internal/config"
	"party-game-bot/internal/handler"
	"party-game-bot/internal/pkg/lock"
	"party-game-bot/internal/seed"
	"party-game-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	startHandler  *handler.StartHandler
	photoHandler  *handler.PhotoHandler
	teamHandler   *handler.TeamHandler
	pointsHandler *handler.PointsHandler
	adminHandler  *handler.AdminHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config      *config.Config
	Identity    *service.IdentityService
	Scoring     *service.ScoringService
	Leaderboard *service.LeaderboardService
	Admin       *service.AdminService
	Catalog     *seed.Catalog
	UserLock    *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.startHandler = handler.NewStartHandler(deps.Identity)
	b.photoHandler = handler.NewPhotoHandler(deps.Identity, deps.Scoring, deps.UserLock)
	b.teamHandler = handler.NewTeamHandler(deps.Identity, deps.Scoring, deps.UserLock)
	b.pointsHandler = handler.NewPointsHandler(deps.Identity, deps.Leaderboard, deps.Catalog)
	b.adminHandler = handler.NewAdminHandler(deps.Admin)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and event handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.startHandler.HandleStart)
	b.bot.Handle("/help", b.startHandler.HandleHelp)

	// Photos route by caption: film claim, puzzle, or plain party photo.
	b.bot.Handle(tele.OnPhoto, b.photoHandler.HandlePhoto)

	b.bot.Handle("/team", b.teamHandler.HandleTeam)
	b.bot.Handle(tele.OnText, b.teamHandler.HandleText)

	b.bot.Handle("/points", b.pointsHandler.HandlePoints)
	b.bot.Handle("/film", b.pointsHandler.HandleFilmCommand)
	b.bot.Handle("/puzzle", b.pointsHandler.HandlePuzzleCommand)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin", b.adminHandler.HandleAdmin)
	adminGroup.Handle("/admin_players", b.adminHandler.HandlePlayers)
	adminGroup.Handle("/admin_player", b.adminHandler.HandlePlayer)
	adminGroup.Handle("/admin_teams", b.adminHandler.HandleTeams)
	adminGroup.Handle("/admin_stats", b.adminHandler.HandleStats)
	adminGroup.Handle("/admin_eastereggs", b.adminHandler.HandleEasterEggs)
	adminGroup.Handle("/admin_points", b.adminHandler.HandlePoints)
	adminGroup.Handle("/admin_logs", b.adminHandler.HandleLogs)
	adminGroup.Handle("/admin_reset", b.adminHandler.HandleReset)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
