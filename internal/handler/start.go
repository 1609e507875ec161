// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"party-game-bot/internal/model"
	"party-game-bot/internal/service"
)

const helpText = "🎬 Party Game Commands\n" +
	"━━━━━━━━━━━━━━━\n" +
	"📸 Send a photo - party photo, +1 point\n" +
	"🎞 Photo with caption \"Film: <title>\" - claim a film reference\n" +
	"🧩 Photo with caption \"Puzzle\" - submit your solved puzzle\n" +
	"👥 /team <6-digit id> - pair up with your film partner\n" +
	"📊 /points - your score and the leaderboard\n" +
	"❓ /help - this message"

// StartHandler handles registration and the help text.
type StartHandler struct {
	identity *service.IdentityService
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(identity *service.IdentityService) *StartHandler {
	return &StartHandler{identity: identity}
}

// HandleStart handles the /start command. Registers the account on
// first contact.
func (h *StartHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, created, err := h.identity.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	if err != nil {
		return c.Reply("❌ Registration failed, please try again later")
	}

	if created {
		return c.Reply(fmt.Sprintf(
			"🎉 Welcome to the party, %s!\n\n%s",
			user.DisplayName(), helpText,
		))
	}

	return c.Reply(fmt.Sprintf(
		"👋 Welcome back, %s!\n\n💰 Current score: %d points",
		user.DisplayName(), user.TotalPoints,
	))
}

// HandleHelp handles the /help command.
func (h *StartHandler) HandleHelp(c tele.Context) error {
	return c.Reply(helpText)
}

// ensureSender registers-or-fetches the account behind an update.
// Shared by every handler that needs an account before acting.
func ensureSender(ctx context.Context, identity *service.IdentityService, c tele.Context) (*model.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, fmt.Errorf("update has no sender")
	}
	user, _, err := identity.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	return user, err
}
