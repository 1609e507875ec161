package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"party-game-bot/internal/model"
	"party-game-bot/internal/pkg/lock"
	"party-game-bot/internal/pkg/retry"
	"party-game-bot/internal/repository"
	"party-game-bot/internal/service"
)

// PhotoHandler routes incoming photos by caption: film claims, puzzle
// submissions, everything else counts as a party photo.
type PhotoHandler struct {
	identity *service.IdentityService
	scoring  *service.ScoringService
	userLock *lock.UserLock
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(identity *service.IdentityService, scoring *service.ScoringService, userLock *lock.UserLock) *PhotoHandler {
	return &PhotoHandler{
		identity: identity,
		scoring:  scoring,
		userLock: userLock,
	}
}

// HandlePhoto handles every incoming photo message.
func (h *PhotoHandler) HandlePhoto(c tele.Context) error {
	ctx := context.Background()

	user, err := ensureSender(ctx, h.identity, c)
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}

	caption := strings.TrimSpace(c.Message().Caption)
	switch {
	case isFilmCaption(caption):
		return h.handleFilmClaim(ctx, c, user, filmTitleFromCaption(caption))
	case isPuzzleCaption(caption):
		return h.handlePuzzle(ctx, c, user)
	default:
		return h.handlePartyPhoto(ctx, c, user)
	}
}

func isFilmCaption(caption string) bool {
	lower := strings.ToLower(caption)
	return strings.HasPrefix(lower, "film:") || strings.HasPrefix(lower, "/film ")
}

func filmTitleFromCaption(caption string) string {
	lower := strings.ToLower(caption)
	switch {
	case strings.HasPrefix(lower, "film:"):
		return strings.TrimSpace(caption[len("film:"):])
	case strings.HasPrefix(lower, "/film "):
		return strings.TrimSpace(caption[len("/film "):])
	}
	return ""
}

func isPuzzleCaption(caption string) bool {
	lower := strings.ToLower(strings.TrimSuffix(caption, "!"))
	return lower == "puzzle" || lower == "/puzzle"
}

func (h *PhotoHandler) handlePartyPhoto(ctx context.Context, c tele.Context, user *model.User) error {
	fileID, image, err := h.downloadPhoto(c)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to download party photo")
		// Count the photo anyway; only the archive copy is lost.
	}

	sub, err := h.scoring.SubmitPartyPhoto(ctx, user, fileID, image)
	if err != nil {
		return c.Reply(errorReply(err))
	}

	return c.Reply(fmt.Sprintf("📸 Party photo saved! +%d point(s)", sub.PointsAwarded))
}

func (h *PhotoHandler) handleFilmClaim(ctx context.Context, c tele.Context, user *model.User, filmTitle string) error {
	if filmTitle == "" {
		return c.Reply("🎞 Please name the film, e.g. photo caption \"Film: Back to the Future\"")
	}

	fileID, image, err := h.downloadPhoto(c)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to download film photo")
		return c.Reply("❌ Could not read your photo, please try again")
	}

	// Serialize the verify-then-decide flow per user so rapid double
	// submissions do not race each other to the oracle.
	h.userLock.Lock(user.ID)
	defer h.userLock.Unlock(user.ID)

	status, err := c.Bot().Reply(c.Message(), fmt.Sprintf("🔍 Checking your %q reference...", filmTitle))
	if err != nil {
		return err
	}

	result, err := h.scoring.ClaimFilm(ctx, user, filmTitle, fileID, image)
	if err != nil {
		return h.edit(c, status, errorReply(err))
	}

	if result.Submission.Status == model.StatusApproved {
		return h.edit(c, status, fmt.Sprintf(
			"🥚 Film reference recognized: %s\n✅ +%d points (confidence %d%%)",
			filmTitle, result.Submission.PointsAwarded, result.Verdict.Confidence,
		))
	}
	return h.edit(c, status, fmt.Sprintf(
		"❌ Could not verify %q.\n💬 %s", filmTitle, result.Verdict.Reasoning,
	))
}

func (h *PhotoHandler) handlePuzzle(ctx context.Context, c tele.Context, user *model.User) error {
	fileID, image, err := h.downloadPhoto(c)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to download puzzle photo")
		return c.Reply("❌ Could not read your photo, please try again")
	}

	h.userLock.Lock(user.ID)
	defer h.userLock.Unlock(user.ID)

	status, err := c.Bot().Reply(c.Message(), "🧩 Checking your puzzle...")
	if err != nil {
		return err
	}

	result, err := h.scoring.SolvePuzzle(ctx, user, fileID, image)
	if err != nil {
		return h.edit(c, status, errorReply(err))
	}

	if result.Submission.Status == model.StatusApproved {
		return h.edit(c, status, fmt.Sprintf(
			"🧩 Puzzle solved! ✅ +%d points (confidence %d%%)",
			result.Submission.PointsAwarded, result.Verdict.Confidence,
		))
	}
	return h.edit(c, status, fmt.Sprintf(
		"❌ Puzzle not accepted.\n💬 %s", result.Verdict.Reasoning,
	))
}

// downloadPhoto fetches the largest rendition of the message photo.
func (h *PhotoHandler) downloadPhoto(c tele.Context) (string, []byte, error) {
	photoMsg := c.Message().Photo
	if photoMsg == nil {
		return "", nil, fmt.Errorf("message has no photo")
	}

	rc, err := c.Bot().File(&photoMsg.File)
	if err != nil {
		return photoMsg.FileID, nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return photoMsg.FileID, nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return photoMsg.FileID, data, nil
}

func (h *PhotoHandler) edit(c tele.Context, msg *tele.Message, text string) error {
	if _, err := c.Bot().Edit(msg, text); err != nil {
		log.Error().Err(err).Msg("Failed to edit status message")
		return c.Reply(text)
	}
	return nil
}

// errorReply maps service and repository errors to user-facing text.
func errorReply(err error) string {
	switch {
	case errors.Is(err, repository.ErrFilmAlreadyClaimed):
		return "🥚 You already claimed this film. Each film counts once!"
	case errors.Is(err, repository.ErrPuzzleAlreadyDone):
		return "🧩 You already solved your puzzle. It counts once!"
	case errors.Is(err, repository.ErrTeamNotFound):
		return "❌ Unknown team ID. Check the six digits and try again"
	case errors.Is(err, repository.ErrAlreadyInTeam):
		return "👥 You are already in a team. Joining is permanent!"
	case errors.Is(err, service.ErrNoTeam):
		return "👥 Join your team first (/team <id>), the puzzle shows your team's film"
	case errors.Is(err, service.ErrInvalidTeamID):
		return "❌ The team ID is the six-digit sum of your two character IDs"
	case errors.Is(err, retry.ErrRetriesExhausted):
		return "⏳ The party is busy right now, please try again"
	default:
		return "❌ Something went wrong, please try again later"
	}
}
