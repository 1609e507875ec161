package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"party-game-bot/internal/pkg/lock"
	"party-game-bot/internal/service"
)

// TeamHandler handles team pairing via /team and the "Team: <id>"
// text form.
type TeamHandler struct {
	identity *service.IdentityService
	scoring  *service.ScoringService
	userLock *lock.UserLock
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(identity *service.IdentityService, scoring *service.ScoringService, userLock *lock.UserLock) *TeamHandler {
	return &TeamHandler{
		identity: identity,
		scoring:  scoring,
		userLock: userLock,
	}
}

// HandleTeam handles the /team command.
func (h *TeamHandler) HandleTeam(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply(
			"👥 Find your film partner and add your two character IDs together.\n" +
				"Then send: /team <6-digit sum>",
		)
	}
	return h.join(c, args[0])
}

// HandleText picks the "Team: <id>" form out of free text. Other text
// is ignored.
func (h *TeamHandler) HandleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	lower := strings.ToLower(text)
	if !strings.HasPrefix(lower, "team:") {
		return nil
	}
	return h.join(c, strings.TrimSpace(text[len("team:"):]))
}

func (h *TeamHandler) join(c tele.Context, teamID string) error {
	ctx := context.Background()

	user, err := ensureSender(ctx, h.identity, c)
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	h.userLock.Lock(user.ID)
	defer h.userLock.Unlock(user.ID)

	result, err := h.scoring.JoinTeam(ctx, user, teamID)
	if err != nil {
		return c.Reply(errorReply(err))
	}

	reply := fmt.Sprintf(
		"🎉 Team found! You are %s & %s from %q.\n✅ +%d points",
		result.Team.Character1, result.Team.Character2,
		result.Team.FilmTitle, result.Submission.PointsAwarded,
	)
	if result.Team.PuzzleLink != nil && *result.Team.PuzzleLink != "" {
		reply += fmt.Sprintf("\n🧩 Your team puzzle: %s", *result.Team.PuzzleLink)
	}
	return c.Reply(reply)
}
