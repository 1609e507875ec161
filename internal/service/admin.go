package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"party-game-bot/internal/model"
	"party-game-bot/internal/pkg/retry"
	"party-game-bot/internal/repository"
)

// AdminService backs the admin console: player inspection, manual
// point adjustment and the game reset. Every mutation is audited by
// the admin repository.
type AdminService struct {
	identity  *IdentityService
	userRepo  *repository.UserRepository
	teamRepo  *repository.TeamRepository
	subRepo   *repository.SubmissionRepository
	adminRepo *repository.AdminRepository
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(
	identity *IdentityService,
	userRepo *repository.UserRepository,
	teamRepo *repository.TeamRepository,
	subRepo *repository.SubmissionRepository,
	adminRepo *repository.AdminRepository,
) *AdminService {
	return &AdminService{
		identity:  identity,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		subRepo:   subRepo,
		adminRepo: adminRepo,
	}
}

// AdjustResult reports a manual point change against its target.
type AdjustResult struct {
	Target   *model.User
	OldTotal int
	NewTotal int
}

// AdjustPoints resolves the target by free-form identifier and applies
// the delta (may be negative), audited under the acting admin's ID.
func (s *AdminService) AdjustPoints(ctx context.Context, identifier string, delta int, reason string, adminID int64) (*AdjustResult, error) {
	target, err := s.identity.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var adj *repository.PointAdjustment
	err = retry.Do(ctx, func(ctx context.Context) error {
		var err error
		adj, err = s.adminRepo.AdjustPoints(ctx, target.ID, delta, reason, adminID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to adjust points: %w", err)
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("target_id", target.ID).
		Int("delta", delta).
		Str("reason", reason).
		Msg("Manual point adjustment")

	target.TotalPoints = adj.NewTotal
	return &AdjustResult{Target: target, OldTotal: adj.OldTotal, NewTotal: adj.NewTotal}, nil
}

// ResetGame wipes all submissions and easter eggs and zeroes every
// account's points and team affiliation. Accounts and the seeded team
// registry survive.
func (s *AdminService) ResetGame(ctx context.Context, adminID int64) (*repository.ResetSummary, error) {
	summary, err := s.adminRepo.ResetGame(ctx, adminID)
	if err != nil {
		return nil, err
	}
	log.Warn().
		Int64("admin_id", adminID).
		Int("submissions", summary.Submissions).
		Int("easter_eggs", summary.EasterEggs).
		Msg("Game reset executed")
	return summary, nil
}

// Overview is the /admin_stats aggregate.
type Overview struct {
	Players     int
	ActiveTeams int
	TotalPoints int
	Submissions map[model.SubmissionType]int
	EasterEggs  int
}

// GameOverview computes the game-wide counters.
func (s *AdminService) GameOverview(ctx context.Context) (*Overview, error) {
	players, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	activeTeams, err := s.teamRepo.CountActiveTeams(ctx)
	if err != nil {
		return nil, err
	}
	totalPoints, err := s.userRepo.SumPoints(ctx)
	if err != nil {
		return nil, err
	}

	subs := make(map[model.SubmissionType]int)
	for _, st := range []model.SubmissionType{
		model.TypePartyPhoto, model.TypeFilmReference, model.TypeTeamJoin, model.TypePuzzle,
	} {
		n, err := s.subRepo.CountAllByType(ctx, st)
		if err != nil {
			return nil, err
		}
		subs[st] = n
	}

	eggs, err := s.subRepo.ListAllEasterEggs(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Players:     players,
		ActiveTeams: activeTeams,
		TotalPoints: totalPoints,
		Submissions: subs,
		EasterEggs:  len(eggs),
	}, nil
}

// PlayerDetail is the per-player admin inspection view.
type PlayerDetail struct {
	User         *model.User
	Breakdown    []repository.TypeBreakdown
	ClaimedFilms []string
	Team         *model.Team
}

// InspectPlayer resolves the identifier and assembles the detail view.
func (s *AdminService) InspectPlayer(ctx context.Context, identifier string) (*PlayerDetail, error) {
	user, err := s.identity.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.subRepo.BreakdownByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	films, err := s.subRepo.ListEasterEggs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	detail := &PlayerDetail{User: user, Breakdown: breakdown, ClaimedFilms: films}
	if user.TeamID != nil {
		team, err := s.teamRepo.GetByTeamID(ctx, *user.TeamID)
		if err != nil {
			return nil, err
		}
		detail.Team = team
	}
	return detail, nil
}

// ListPlayers retrieves every account, highest score first.
func (s *AdminService) ListPlayers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.ListAll(ctx)
}

// TeamRoster is one team with its current members.
type TeamRoster struct {
	Team    *model.Team
	Members []*model.User
}

// ListTeams retrieves every team with its member roster.
func (s *AdminService) ListTeams(ctx context.Context) ([]*TeamRoster, error) {
	teams, err := s.teamRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rosters := make([]*TeamRoster, 0, len(teams))
	for _, team := range teams {
		members, err := s.teamRepo.Members(ctx, team.TeamID)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, &TeamRoster{Team: team, Members: members})
	}
	return rosters, nil
}

// EasterEggClaim is one claimed film with the claimant's name resolved.
type EasterEggClaim struct {
	Player    string
	FilmTitle string
}

// ListEasterEggs retrieves every claimed film across all players,
// oldest claim first.
func (s *AdminService) ListEasterEggs(ctx context.Context) ([]EasterEggClaim, error) {
	eggs, err := s.subRepo.ListAllEasterEggs(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byID := lo.KeyBy(users, func(u *model.User) int64 { return u.ID })
	return lo.Map(eggs, func(egg *model.EasterEgg, _ int) EasterEggClaim {
		name := fmt.Sprintf("#%d", egg.UserID)
		if u, ok := byID[egg.UserID]; ok {
			name = u.DisplayName()
		}
		return EasterEggClaim{Player: name, FilmTitle: egg.FilmTitle}
	}), nil
}

// RecentLogs retrieves the newest audit entries.
func (s *AdminService) RecentLogs(ctx context.Context, limit int) ([]*model.AdminLogEntry, error) {
	return s.adminRepo.ListLogs(ctx, limit)
}
