package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"party-game-bot/internal/model"
)

// TeamRepository handles the pre-seeded team registry. Teams are
// created during startup seeding and read-only afterwards.
type TeamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository creates a new TeamRepository instance.
func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

const teamColumns = `id, team_id, film_title, character_1, character_2, character_1_id, character_2_id, puzzle_link, created_at`

func scanTeam(row pgx.Row) (*model.Team, error) {
	var t model.Team
	err := row.Scan(
		&t.ID,
		&t.TeamID,
		&t.FilmTitle,
		&t.Character1,
		&t.Character2,
		&t.Character1ID,
		&t.Character2ID,
		&t.PuzzleLink,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateIfAbsent inserts a team unless its team_id already exists.
// Returns true when a new row was created. Used by startup seeding,
// which must be idempotent across restarts.
func (r *TeamRepository) CreateIfAbsent(ctx context.Context, t *model.Team) (bool, error) {
	const query = `
		INSERT INTO teams (team_id, film_title, character_1, character_2, character_1_id, character_2_id, puzzle_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (team_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		t.TeamID, t.FilmTitle, t.Character1, t.Character2, t.Character1ID, t.Character2ID, t.PuzzleLink)
	if err != nil {
		return false, fmt.Errorf("failed to create team: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByTeamID retrieves a team by its six-digit business key.
// Returns ErrTeamNotFound if no such team exists.
func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID string) (*model.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams WHERE team_id = $1`

	team, err := scanTeam(r.pool.QueryRow(ctx, query, teamID))
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// ListAll retrieves every team ordered by film title.
func (r *TeamRepository) ListAll(ctx context.Context) ([]*model.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams ORDER BY film_title`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}

// Members retrieves the accounts affiliated with a team.
func (r *TeamRepository) Members(ctx context.Context, teamID string) ([]*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY total_points DESC, id`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	return users, nil
}

// TopTeams retrieves the top N teams ranked by the sum of their
// members' total points, with the member count alongside.
func (r *TeamRepository) TopTeams(ctx context.Context, limit int) ([]*model.TeamRank, error) {
	const query = `
		SELECT t.team_id, t.film_title, COUNT(u.id), COALESCE(SUM(u.total_points), 0) AS team_points
		FROM teams t
		JOIN users u ON u.team_id = t.team_id
		GROUP BY t.team_id, t.film_title
		ORDER BY team_points DESC, t.team_id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top teams: %w", err)
	}
	defer rows.Close()

	var ranks []*model.TeamRank
	for rows.Next() {
		var tr model.TeamRank
		if err := rows.Scan(&tr.TeamID, &tr.FilmTitle, &tr.MemberCount, &tr.TotalPoints); err != nil {
			return nil, fmt.Errorf("failed to scan team rank: %w", err)
		}
		ranks = append(ranks, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top teams: %w", err)
	}
	return ranks, nil
}

// CountActiveTeams returns the number of teams with at least one member.
func (r *TeamRepository) CountActiveTeams(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT team_id) FROM users WHERE team_id IS NOT NULL`

	var n int
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active teams: %w", err)
	}
	return n, nil
}
