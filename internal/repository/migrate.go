package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrate applies the database schema. Statements are idempotent so
// the bot can run them on every startup; the test harness reuses them
// against its throwaway container.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "teams table",
			sql: `
				CREATE TABLE IF NOT EXISTS teams (
					id BIGSERIAL PRIMARY KEY,
					team_id VARCHAR(6) UNIQUE NOT NULL,
					film_title VARCHAR(255) NOT NULL,
					character_1 VARCHAR(255) NOT NULL,
					character_2 VARCHAR(255) NOT NULL,
					character_1_id VARCHAR(6) NOT NULL,
					character_2_id VARCHAR(6) NOT NULL,
					puzzle_link VARCHAR(500),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			name: "users table",
			sql: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					telegram_id BIGINT UNIQUE NOT NULL,
					username VARCHAR(255) NOT NULL DEFAULT '',
					first_name VARCHAR(255) NOT NULL DEFAULT '',
					last_name VARCHAR(255) NOT NULL DEFAULT '',
					team_id VARCHAR(6) REFERENCES teams(team_id),
					total_points INT NOT NULL DEFAULT 0,
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_users_points ON users(total_points DESC);
				CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id);
			`,
		},
		{
			name: "submissions table",
			sql: `
				CREATE TABLE IF NOT EXISTS submissions (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					submission_type VARCHAR(20) NOT NULL,
					status VARCHAR(10) NOT NULL DEFAULT 'pending',
					points_awarded INT NOT NULL DEFAULT 0,
					photo_file_id VARCHAR(500),
					photo_path VARCHAR(500),
					caption TEXT,
					film_title VARCHAR(255),
					ai_evaluation TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_submissions_user_type ON submissions(user_id, submission_type);
				CREATE UNIQUE INDEX IF NOT EXISTS uq_submissions_puzzle_once
					ON submissions(user_id)
					WHERE submission_type = 'puzzle' AND status = 'approved';
			`,
		},
		{
			name: "easter_eggs table",
			sql: `
				CREATE TABLE IF NOT EXISTS easter_eggs (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					film_title VARCHAR(255) NOT NULL,
					recognized_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE UNIQUE INDEX IF NOT EXISTS uq_easter_eggs_user_film
					ON easter_eggs(user_id, LOWER(film_title));
			`,
		},
		{
			name: "admin_logs table",
			sql: `
				CREATE TABLE IF NOT EXISTS admin_logs (
					id BIGSERIAL PRIMARY KEY,
					admin_id BIGINT NOT NULL,
					action VARCHAR(255) NOT NULL,
					target_user_id BIGINT,
					details TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_admin_logs_time ON admin_logs(created_at DESC);
			`,
		},
	}

	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q failed: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("Migration applied")
	}

	log.Info().Int("count", len(migrations)).Msg("Database migrations completed")
	return nil
}
