// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"party-game-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrAlreadyInTeam      = errors.New("user already in a team")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrFilmAlreadyClaimed = errors.New("film already claimed")
	ErrPuzzleAlreadyDone  = errors.New("puzzle already solved")
)

const userColumns = `id, telegram_id, username, first_name, last_name, team_id, total_points, is_admin, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.TeamID,
		&u.TotalPoints,
		&u.IsAdmin,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UserRepository handles player account persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetOrCreate returns the account for the given Telegram ID, creating
// it lazily on first contact. The returned bool reports whether a new
// row was created. An existing account is returned unchanged; stale
// display-name fields are not refreshed.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, bool, error) {
	const insert = `
		INSERT INTO users (telegram_id, username, first_name, last_name, total_points, created_at)
		VALUES ($1, $2, $3, $4, 0, NOW())
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, insert, telegramID, username, firstName, lastName))
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	// Conflict path: the account already exists.
	user, err = r.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// GetByID retrieves a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByTelegramID retrieves a user by Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by case-insensitive exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getByNameColumn(ctx, `LOWER(username) = LOWER($1)`, username)
}

// GetByFirstName retrieves a user by case-insensitive exact first name.
func (r *UserRepository) GetByFirstName(ctx context.Context, firstName string) (*model.User, error) {
	return r.getByNameColumn(ctx, `LOWER(first_name) = LOWER($1)`, firstName)
}

// GetByLastName retrieves a user by case-insensitive exact last name.
func (r *UserRepository) GetByLastName(ctx context.Context, lastName string) (*model.User, error) {
	return r.getByNameColumn(ctx, `LOWER(last_name) = LOWER($1)`, lastName)
}

// GetByFullName retrieves a user by case-insensitive exact
// "first last" concatenation.
func (r *UserRepository) GetByFullName(ctx context.Context, fullName string) (*model.User, error) {
	return r.getByNameColumn(ctx, `LOWER(first_name || ' ' || last_name) = LOWER($1)`, fullName)
}

func (r *UserRepository) getByNameColumn(ctx context.Context, where string, arg string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` ORDER BY id LIMIT 1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// ListAll retrieves every account ordered by total points descending.
func (r *UserRepository) ListAll(ctx context.Context) ([]*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY total_points DESC, id`

	return r.queryUsers(ctx, query)
}

// TopPlayers retrieves the top N accounts by total points.
func (r *UserRepository) TopPlayers(ctx context.Context, limit int) ([]*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY total_points DESC, id LIMIT $1`

	return r.queryUsers(ctx, query, limit)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*model.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// RankOf returns the user's leaderboard position and the total number
// of accounts. Position is 1 plus the count of accounts with strictly
// greater total points, so tied accounts share a position.
func (r *UserRepository) RankOf(ctx context.Context, userID int64) (int, int, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users b WHERE b.total_points > a.total_points) + 1,
			(SELECT COUNT(*) FROM users)
		FROM users a
		WHERE a.id = $1
	`

	var position, total int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&position, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrUserNotFound
		}
		return 0, 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return position, total, nil
}

// CountUsers returns the number of registered accounts.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// SumPoints returns the sum of all accounts' total points.
func (r *UserRepository) SumPoints(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_points), 0) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return n, nil
}
