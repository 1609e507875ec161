package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"party-game-bot/internal/model"
	"party-game-bot/internal/repository"
	"party-game-bot/internal/service"
)

const adminMenu = "🛠 Admin Console\n" +
	"━━━━━━━━━━━━━━━\n" +
	"/admin_players - all players by score\n" +
	"/admin_player <ident> - inspect one player\n" +
	"/admin_teams - team rosters\n" +
	"/admin_stats - game overview\n" +
	"/admin_eastereggs - all claimed films\n" +
	"/admin_points <ident> <±points> <reason> - adjust score\n" +
	"/admin_logs - recent audit entries\n" +
	"/admin_reset confirm - wipe the game (keeps accounts and teams)\n\n" +
	"<ident> = Telegram ID, @username, first name, last name or \"first last\""

// AdminHandler handles the admin console. Registration behind
// AdminMiddleware; no permission checks here.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// HandleAdmin handles /admin.
func (h *AdminHandler) HandleAdmin(c tele.Context) error {
	return c.Reply(adminMenu)
}

// HandlePlayers handles /admin_players.
func (h *AdminHandler) HandlePlayers(c tele.Context) error {
	ctx := context.Background()

	players, err := h.admin.ListPlayers(ctx)
	if err != nil {
		return c.Reply("❌ Failed to list players")
	}
	if len(players) == 0 {
		return c.Reply("📊 No players yet")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 Players (%d)\n━━━━━━━━━━━━━━━\n", len(players))
	for i, p := range players {
		team := "-"
		if p.TeamID != nil {
			team = *p.TeamID
		}
		fmt.Fprintf(&b, "%d. %s (id %d): %d pts, team %s\n", i+1, p.DisplayName(), p.TelegramID, p.TotalPoints, team)
	}
	return c.Reply(b.String())
}

// HandlePlayer handles /admin_player <ident>.
func (h *AdminHandler) HandlePlayer(c tele.Context) error {
	ctx := context.Background()

	identifier := strings.TrimSpace(strings.Join(c.Args(), " "))
	if identifier == "" {
		return c.Reply("Usage: /admin_player <ident>")
	}

	detail, err := h.admin.InspectPlayer(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply(fmt.Sprintf("❌ No player matches %q", identifier))
		}
		return c.Reply("❌ Failed to inspect player")
	}

	u := detail.User
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n━━━━━━━━━━━━━━━\n", u.DisplayName())
	fmt.Fprintf(&b, "Telegram ID: %d\nUsername: @%s\nName: %s %s\n", u.TelegramID, u.Username, u.FirstName, u.LastName)
	fmt.Fprintf(&b, "💰 Points: %d\n", u.TotalPoints)
	if detail.Team != nil {
		fmt.Fprintf(&b, "👥 Team: %s (%s)\n", detail.Team.TeamID, detail.Team.FilmTitle)
	}
	for _, bd := range detail.Breakdown {
		fmt.Fprintf(&b, "• %s: %d total, %d approved, %d pts\n", bd.Type, bd.Count, bd.ApprovedCount, bd.ApprovedPoints)
	}
	if len(detail.ClaimedFilms) > 0 {
		fmt.Fprintf(&b, "🥚 Films: %s\n", strings.Join(detail.ClaimedFilms, ", "))
	}
	return c.Reply(b.String())
}

// HandleTeams handles /admin_teams.
func (h *AdminHandler) HandleTeams(c tele.Context) error {
	ctx := context.Background()

	rosters, err := h.admin.ListTeams(ctx)
	if err != nil {
		return c.Reply("❌ Failed to list teams")
	}
	if len(rosters) == 0 {
		return c.Reply("👥 No teams seeded")
	}

	var b strings.Builder
	b.WriteString("🎬 Teams\n━━━━━━━━━━━━━━━\n")
	for _, r := range rosters {
		fmt.Fprintf(&b, "%s - %s (%s & %s)\n", r.Team.TeamID, r.Team.FilmTitle, r.Team.Character1, r.Team.Character2)
		if len(r.Members) == 0 {
			b.WriteString("  (no members yet)\n")
			continue
		}
		for _, m := range r.Members {
			fmt.Fprintf(&b, "  • %s: %d pts\n", m.DisplayName(), m.TotalPoints)
		}
	}
	return c.Reply(b.String())
}

// HandleStats handles /admin_stats.
func (h *AdminHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()

	overview, err := h.admin.GameOverview(ctx)
	if err != nil {
		return c.Reply("❌ Failed to load game stats")
	}

	var b strings.Builder
	b.WriteString("📈 Game Overview\n━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "👥 Players: %d\n", overview.Players)
	fmt.Fprintf(&b, "🎬 Active teams: %d\n", overview.ActiveTeams)
	fmt.Fprintf(&b, "💰 Points in play: %d\n", overview.TotalPoints)
	fmt.Fprintf(&b, "🥚 Easter eggs claimed: %d\n\n", overview.EasterEggs)
	fmt.Fprintf(&b, "📸 Party photos: %d\n", overview.Submissions[model.TypePartyPhoto])
	fmt.Fprintf(&b, "🎞 Film claims: %d\n", overview.Submissions[model.TypeFilmReference])
	fmt.Fprintf(&b, "👥 Team joins: %d\n", overview.Submissions[model.TypeTeamJoin])
	fmt.Fprintf(&b, "🧩 Puzzles: %d\n", overview.Submissions[model.TypePuzzle])
	return c.Reply(b.String())
}

// HandleEasterEggs handles /admin_eastereggs.
func (h *AdminHandler) HandleEasterEggs(c tele.Context) error {
	ctx := context.Background()

	claims, err := h.admin.ListEasterEggs(ctx)
	if err != nil {
		return c.Reply("❌ Failed to list easter eggs")
	}
	if len(claims) == 0 {
		return c.Reply("🥚 No films claimed yet")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🥚 Claimed films (%d)\n━━━━━━━━━━━━━━━\n", len(claims))
	for _, claim := range claims {
		fmt.Fprintf(&b, "• %s - %s\n", claim.Player, claim.FilmTitle)
	}
	return c.Reply(b.String())
}

// HandlePoints handles /admin_points <ident> <delta> <reason...>.
func (h *AdminHandler) HandlePoints(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 3 {
		return c.Reply("Usage: /admin_points <ident> <±points> <reason>")
	}

	delta, err := strconv.Atoi(args[1])
	if err != nil || delta == 0 {
		return c.Reply("❌ Points must be a non-zero integer, e.g. 10 or -5")
	}
	reason := strings.Join(args[2:], " ")

	result, err := h.admin.AdjustPoints(ctx, args[0], delta, reason, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply(fmt.Sprintf("❌ No player matches %q", args[0]))
		}
		return c.Reply(errorReply(err))
	}

	return c.Reply(fmt.Sprintf(
		"✅ %s: %d → %d points (%+d)\n📝 %s",
		result.Target.DisplayName(), result.OldTotal, result.NewTotal, delta, reason,
	))
}

// HandleLogs handles /admin_logs.
func (h *AdminHandler) HandleLogs(c tele.Context) error {
	ctx := context.Background()

	entries, err := h.admin.RecentLogs(ctx, 20)
	if err != nil {
		return c.Reply("❌ Failed to load audit log")
	}
	if len(entries) == 0 {
		return c.Reply("📜 No admin actions recorded yet")
	}

	var b strings.Builder
	b.WriteString("📜 Recent admin actions\n━━━━━━━━━━━━━━━\n")
	for _, e := range entries {
		target := ""
		if e.TargetUserID != nil {
			target = fmt.Sprintf(" → user %d", *e.TargetUserID)
		}
		fmt.Fprintf(&b, "• %s %s by %d%s\n  %s\n",
			e.CreatedAt.Format("02.01 15:04"), e.Action, e.AdminID, target, e.Details)
	}
	return c.Reply(b.String())
}

// HandleReset handles /admin_reset. Requires the literal argument
// "confirm"; the wipe is irreversible.
func (h *AdminHandler) HandleReset(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 || !strings.EqualFold(args[0], "confirm") {
		return c.Reply(
			"⚠️ This wipes ALL submissions, easter eggs, points and team " +
				"affiliations. Accounts and the team registry survive.\n\n" +
				"To proceed: /admin_reset confirm",
		)
	}

	summary, err := h.admin.ResetGame(ctx, sender.ID)
	if err != nil {
		return c.Reply("❌ Reset failed")
	}

	return c.Reply(fmt.Sprintf(
		"🧹 Game reset complete.\nRemoved %d submissions and %d easter eggs, "+
			"zeroed %d players, kept %d teams.",
		summary.Submissions, summary.EasterEggs, summary.Users, summary.Teams,
	))
}
