package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"

	"party-game-bot/internal/config"
	"party-game-bot/internal/model"
	"party-game-bot/internal/oracle"
	"party-game-bot/internal/photo"
	"party-game-bot/internal/pkg/retry"
	"party-game-bot/internal/repository"
	"party-game-bot/internal/seed"
)

// Common errors for scoring operations.
var (
	ErrNoTeam         = errors.New("user has not joined a team")
	ErrInvalidTeamID  = errors.New("team id must be exactly six digits")
	ErrEmptyFilmTitle = errors.New("film title must not be empty")
)

var teamIDPattern = regexp.MustCompile(`^\d{6}$`)

// ScoringService runs the scored-action flows: party photos, film
// reference claims, puzzle solutions and team pairing. All point
// mutations go through the submission ledger; this layer adds
// eligibility checks, oracle verification and photo archival.
type ScoringService struct {
	subRepo  *repository.SubmissionRepository
	teamRepo *repository.TeamRepository
	verifier oracle.Verifier
	catalog  *seed.Catalog
	photos   *photo.Store
	points   config.GameConfig
}

// NewScoringService creates a new ScoringService instance.
func NewScoringService(
	subRepo *repository.SubmissionRepository,
	teamRepo *repository.TeamRepository,
	verifier oracle.Verifier,
	catalog *seed.Catalog,
	photos *photo.Store,
	points config.GameConfig,
) *ScoringService {
	return &ScoringService{
		subRepo:  subRepo,
		teamRepo: teamRepo,
		verifier: verifier,
		catalog:  catalog,
		photos:   photos,
		points:   points,
	}
}

// VerifiedResult bundles a submission with the oracle verdict that
// decided it.
type VerifiedResult struct {
	Submission *model.Submission
	Verdict    *oracle.Verdict
}

// TeamJoinResult reports a successful pairing.
type TeamJoinResult struct {
	Team       *model.Team
	Submission *model.Submission
}

// SubmitPartyPhoto records a plain party photo. Auto-approved, no
// verification; every photo counts.
func (s *ScoringService) SubmitPartyPhoto(ctx context.Context, user *model.User, photoFileID string, image []byte) (*model.Submission, error) {
	var sub *model.Submission
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.Create(ctx, repository.CreateParams{
			UserID:      user.ID,
			Type:        model.TypePartyPhoto,
			Status:      model.StatusApproved,
			Points:      s.points.PartyPhotoPoints,
			PhotoFileID: &photoFileID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record party photo: %w", err)
	}

	s.archivePhoto(ctx, photo.CategoryParty, user.ID, sub.ID, image)
	return sub, nil
}

// ClaimFilm runs the film-reference flow: eligibility check, pending
// submission, oracle verdict, then approval (which also records the
// easter egg) or rejection. Each film can be claimed once per user;
// a lost race against a concurrent claim of the same title surfaces
// as repository.ErrFilmAlreadyClaimed, same as the pre-check.
func (s *ScoringService) ClaimFilm(ctx context.Context, user *model.User, filmTitle, photoFileID string, image []byte) (*VerifiedResult, error) {
	if repository.NormalizeFilmTitle(filmTitle) == "" {
		return nil, ErrEmptyFilmTitle
	}

	claimed, err := s.subRepo.HasClaimedFilm(ctx, user.ID, filmTitle)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, repository.ErrFilmAlreadyClaimed
	}

	sub, err := s.subRepo.Create(ctx, repository.CreateParams{
		UserID:      user.ID,
		Type:        model.TypeFilmReference,
		Status:      model.StatusPending,
		PhotoFileID: &photoFileID,
		FilmTitle:   &filmTitle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record film claim: %w", err)
	}
	s.archivePhoto(ctx, photo.CategoryFilm, user.ID, sub.ID, image)

	verdict := s.verifier.VerifyFilmReference(ctx, image, filmTitle, s.catalog.EasterEggHint(filmTitle))
	evaluation := evaluationText(verdict)

	if !verdict.Approved {
		if err := s.reject(ctx, sub.ID, &evaluation); err != nil {
			return nil, err
		}
		return s.verifiedResult(ctx, sub.ID, verdict)
	}

	err = retry.Do(ctx, func(ctx context.Context) error {
		return s.subRepo.ApproveFilm(ctx, sub.ID, s.points.FilmPoints, &evaluation, filmTitle)
	})
	if err != nil {
		if errors.Is(err, repository.ErrFilmAlreadyClaimed) {
			// Lost the race against a concurrent claim of the same title.
			rejection := "Duplicate claim: film already recognized for this player"
			if rerr := s.reject(ctx, sub.ID, &rejection); rerr != nil {
				log.Error().Err(rerr).Int64("submission_id", sub.ID).Msg("Failed to reject duplicate film claim")
			}
			return nil, repository.ErrFilmAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to approve film claim: %w", err)
	}

	return s.verifiedResult(ctx, sub.ID, verdict)
}

// SolvePuzzle runs the puzzle flow. Requires team membership (the
// puzzle depicts the team's film poster) and succeeds at most once per
// player, enforced both by the pre-check and by the ledger constraint.
func (s *ScoringService) SolvePuzzle(ctx context.Context, user *model.User, photoFileID string, image []byte) (*VerifiedResult, error) {
	if user.TeamID == nil {
		return nil, ErrNoTeam
	}
	team, err := s.teamRepo.GetByTeamID(ctx, *user.TeamID)
	if err != nil {
		return nil, err
	}

	done, err := s.subRepo.HasApprovedType(ctx, user.ID, model.TypePuzzle)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, repository.ErrPuzzleAlreadyDone
	}

	sub, err := s.subRepo.Create(ctx, repository.CreateParams{
		UserID:      user.ID,
		Type:        model.TypePuzzle,
		Status:      model.StatusPending,
		PhotoFileID: &photoFileID,
		FilmTitle:   &team.FilmTitle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record puzzle submission: %w", err)
	}
	s.archivePhoto(ctx, photo.CategoryPuzzle, user.ID, sub.ID, image)

	verdict := s.verifier.VerifyPuzzlePoster(ctx, image, team.FilmTitle, s.catalog.Posters(team.FilmTitle))
	evaluation := evaluationText(verdict)

	if !verdict.Approved {
		if err := s.reject(ctx, sub.ID, &evaluation); err != nil {
			return nil, err
		}
		return s.verifiedResult(ctx, sub.ID, verdict)
	}

	err = retry.Do(ctx, func(ctx context.Context) error {
		return s.subRepo.UpdateStatus(ctx, sub.ID, model.StatusApproved, s.points.PuzzlePoints, &evaluation)
	})
	if err != nil {
		if errors.Is(err, repository.ErrPuzzleAlreadyDone) {
			return nil, repository.ErrPuzzleAlreadyDone
		}
		return nil, fmt.Errorf("failed to approve puzzle: %w", err)
	}

	return s.verifiedResult(ctx, sub.ID, verdict)
}

// JoinTeam pairs the player with the team behind the six-digit code
// and awards the pairing bonus, atomically. Joining is permanent.
func (s *ScoringService) JoinTeam(ctx context.Context, user *model.User, teamID string) (*TeamJoinResult, error) {
	if !teamIDPattern.MatchString(teamID) {
		return nil, ErrInvalidTeamID
	}

	var sub *model.Submission
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subRepo.JoinTeamWithAward(ctx, user.ID, teamID, s.points.TeamJoinPoints)
		return err
	})
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("team_id", teamID).Str("film", team.FilmTitle).Msg("Player joined team")
	return &TeamJoinResult{Team: team, Submission: sub}, nil
}

// TeamOf returns the user's team, or ErrNoTeam.
func (s *ScoringService) TeamOf(ctx context.Context, user *model.User) (*model.Team, error) {
	if user.TeamID == nil {
		return nil, ErrNoTeam
	}
	return s.teamRepo.GetByTeamID(ctx, *user.TeamID)
}

func (s *ScoringService) reject(ctx context.Context, submissionID int64, evaluation *string) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return s.subRepo.UpdateStatus(ctx, submissionID, model.StatusRejected, 0, evaluation)
	})
	if err != nil {
		return fmt.Errorf("failed to reject submission: %w", err)
	}
	return nil
}

func (s *ScoringService) verifiedResult(ctx context.Context, submissionID int64, verdict *oracle.Verdict) (*VerifiedResult, error) {
	sub, err := s.subRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return &VerifiedResult{Submission: sub, Verdict: verdict}, nil
}

// archivePhoto writes the image to disk and records its path.
// Best-effort: archival failures are logged, never surfaced, the
// submission already counts.
func (s *ScoringService) archivePhoto(ctx context.Context, category string, userID, submissionID int64, image []byte) {
	if s.photos == nil || len(image) == 0 {
		return
	}
	path, err := s.photos.Save(category, userID, image)
	if err != nil {
		log.Error().Err(err).Int64("submission_id", submissionID).Msg("Failed to archive photo")
		return
	}
	if err := s.subRepo.SetPhotoPath(ctx, submissionID, path); err != nil {
		log.Error().Err(err).Int64("submission_id", submissionID).Msg("Failed to record photo path")
	}
}

func evaluationText(v *oracle.Verdict) string {
	if v.Raw != "" {
		return v.Raw
	}
	return fmt.Sprintf("approved=%t confidence=%d: %s", v.Approved, v.Confidence, v.Reasoning)
}
