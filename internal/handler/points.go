package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"party-game-bot/internal/model"
	"party-game-bot/internal/repository"
	"party-game-bot/internal/seed"
	"party-game-bot/internal/service"
)

// PointsHandler handles the /points stats view and the film/puzzle
// instruction commands.
type PointsHandler struct {
	identity    *service.IdentityService
	leaderboard *service.LeaderboardService
	catalog     *seed.Catalog
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(identity *service.IdentityService, leaderboard *service.LeaderboardService, catalog *seed.Catalog) *PointsHandler {
	return &PointsHandler{identity: identity, leaderboard: leaderboard, catalog: catalog}
}

var medals = []string{"🥇", "🥈", "🥉"}

// HandlePoints handles the /points command: own score, per-category
// breakdown, claimed films, rank and the top-3 players and teams.
func (h *PointsHandler) HandlePoints(c tele.Context) error {
	ctx := context.Background()

	user, err := ensureSender(ctx, h.identity, c)
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	stats, err := h.leaderboard.StatsFor(ctx, user)
	if err != nil {
		return c.Reply("❌ Could not load your stats, please try again later")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s's score\n", user.DisplayName())
	b.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "💰 Total: %d points (rank %d of %d)\n\n", user.TotalPoints, stats.Rank, stats.TotalPlayers)

	b.WriteString(breakdownLine(stats, model.TypePartyPhoto, "📸 Party photos"))
	b.WriteString(breakdownLine(stats, model.TypeFilmReference, "🎞 Film references"))
	b.WriteString(breakdownLine(stats, model.TypeTeamJoin, "👥 Team"))
	b.WriteString(breakdownLine(stats, model.TypePuzzle, "🧩 Puzzle"))

	if len(stats.ClaimedFilms) > 0 {
		fmt.Fprintf(&b, "\n🥚 Claimed films: %s\n", strings.Join(stats.ClaimedFilms, ", "))
	}
	if stats.Team != nil {
		fmt.Fprintf(&b, "👥 Team: %s (%s)\n", stats.Team.TeamID, stats.Team.FilmTitle)
	}

	if len(stats.TopPlayers) > 0 {
		b.WriteString("\n🏆 Top players\n")
		for i, p := range stats.TopPlayers {
			fmt.Fprintf(&b, "%s %s: %d\n", medals[i], p.DisplayName(), p.TotalPoints)
		}
	}
	if len(stats.TopTeams) > 0 {
		b.WriteString("\n🎬 Top teams\n")
		for i, t := range stats.TopTeams {
			fmt.Fprintf(&b, "%s %s (%d members): %d\n", medals[i], t.FilmTitle, t.MemberCount, t.TotalPoints)
		}
	}

	b.WriteString("━━━━━━━━━━━━━━━")
	return c.Reply(b.String())
}

func breakdownLine(stats *service.PlayerStats, st model.SubmissionType, label string) string {
	b, ok := stats.Breakdown[st]
	if !ok {
		b = repository.TypeBreakdown{Type: st}
	}
	return fmt.Sprintf("%s: %d approved, %d points\n", label, b.ApprovedCount, b.ApprovedPoints)
}

// HandleFilmCommand handles a text-only /film; the claim itself rides
// on a photo caption.
func (h *PointsHandler) HandleFilmCommand(c tele.Context) error {
	reply := "🎞 To claim a film reference, send a PHOTO with the caption:\n" +
		"Film: <title>\n\n" +
		"The photo must show a recognizable reference - an easter egg, " +
		"a costume, a prop or a reenacted scene."
	if films := h.catalog.Films(); len(films) > 0 {
		reply += "\n\n🎬 Films at this party:\n• " + strings.Join(films, "\n• ")
	}
	return c.Reply(reply)
}

// HandlePuzzleCommand handles a text-only /puzzle.
func (h *PointsHandler) HandlePuzzleCommand(c tele.Context) error {
	return c.Reply(
		"🧩 To submit your puzzle, send a PHOTO of the fully solved puzzle " +
			"with the caption:\nPuzzle",
	)
}
