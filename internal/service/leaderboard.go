package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"party-game-bot/internal/model"
	"party-game-bot/internal/repository"
)

// LeaderboardService computes ranks, top lists and the per-player
// stats view.
type LeaderboardService struct {
	userRepo *repository.UserRepository
	teamRepo *repository.TeamRepository
	subRepo  *repository.SubmissionRepository
}

// NewLeaderboardService creates a new LeaderboardService instance.
func NewLeaderboardService(
	userRepo *repository.UserRepository,
	teamRepo *repository.TeamRepository,
	subRepo *repository.SubmissionRepository,
) *LeaderboardService {
	return &LeaderboardService{
		userRepo: userRepo,
		teamRepo: teamRepo,
		subRepo:  subRepo,
	}
}

// PlayerStats is the full /points view for one player.
type PlayerStats struct {
	User         *model.User
	Rank         int
	TotalPlayers int
	Breakdown    map[model.SubmissionType]repository.TypeBreakdown
	ClaimedFilms []string
	Team         *model.Team
	TopPlayers   []*model.User
	TopTeams     []*model.TeamRank
}

// StatsFor assembles the stats view: rank (tied accounts share a
// position), per-category breakdown, claimed films, team, and the
// top-3 players and teams.
func (s *LeaderboardService) StatsFor(ctx context.Context, user *model.User) (*PlayerStats, error) {
	rank, total, err := s.userRepo.RankOf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank: %w", err)
	}

	breakdown, err := s.subRepo.BreakdownByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	films, err := s.subRepo.ListEasterEggs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	topPlayers, err := s.userRepo.TopPlayers(ctx, 3)
	if err != nil {
		return nil, err
	}

	topTeams, err := s.teamRepo.TopTeams(ctx, 3)
	if err != nil {
		return nil, err
	}

	stats := &PlayerStats{
		User:         user,
		Rank:         rank,
		TotalPlayers: total,
		Breakdown: lo.SliceToMap(breakdown, func(b repository.TypeBreakdown) (model.SubmissionType, repository.TypeBreakdown) {
			return b.Type, b
		}),
		ClaimedFilms: films,
		TopPlayers:   topPlayers,
		TopTeams:     topTeams,
	}

	if user.TeamID != nil {
		team, err := s.teamRepo.GetByTeamID(ctx, *user.TeamID)
		if err != nil {
			return nil, err
		}
		stats.Team = team
	}

	return stats, nil
}
