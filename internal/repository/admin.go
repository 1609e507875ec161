package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"party-game-bot/internal/model"
)

// AdminRepository handles privileged, audited mutations: manual point
// adjustment and full game reset. Both bypass the submission ledger
// and always append to the admin log in the same transaction.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository instance.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// PointAdjustment reports the outcome of a manual point change.
type PointAdjustment struct {
	OldTotal int
	NewTotal int
}

// AdjustPoints mutates total_points by delta (may be negative) and
// appends a MANUAL_POINTS audit entry capturing old/new totals and
// the reason, atomically.
func (r *AdminRepository) AdjustPoints(ctx context.Context, targetUserID int64, delta int, reason string, adminID int64) (*PointAdjustment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var oldTotal, newTotal int
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET total_points = total_points + $2
		WHERE id = $1
		RETURNING total_points - $2, total_points
	`, targetUserID, delta).Scan(&oldTotal, &newTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to adjust points: %w", err)
	}

	details, err := json.Marshal(map[string]any{
		"points":    delta,
		"reason":    reason,
		"old_total": oldTotal,
		"new_total": newTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit details: %w", err)
	}

	if err := appendLog(ctx, tx, adminID, model.AdminActionManualPoints, &targetUserID, string(details)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit point adjustment: %w", err)
	}
	return &PointAdjustment{OldTotal: oldTotal, NewTotal: newTotal}, nil
}

// ResetSummary reports what a game reset removed, for audit and
// operator confirmation.
type ResetSummary struct {
	Submissions int `json:"submissions"`
	EasterEggs  int `json:"easter_eggs"`
	Users       int `json:"users"`
	Teams       int `json:"teams"`
}

// ResetGame deletes all submissions and easter eggs and zeroes every
// account's points and team affiliation. Accounts and the team
// registry survive. Irreversible; the pre-reset counts are returned
// and written to the audit log.
func (r *AdminRepository) ResetGame(ctx context.Context, adminID int64) (*ResetSummary, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var summary ResetSummary
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM submissions`, &summary.Submissions},
		{`SELECT COUNT(*) FROM easter_eggs`, &summary.EasterEggs},
		{`SELECT COUNT(*) FROM users`, &summary.Users},
		{`SELECT COUNT(*) FROM teams`, &summary.Teams},
	}
	for _, c := range counts {
		if err := tx.QueryRow(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count before reset: %w", err)
		}
	}

	steps := []string{
		`DELETE FROM easter_eggs`,
		`DELETE FROM submissions`,
		`UPDATE users SET total_points = 0, team_id = NULL`,
	}
	for _, q := range steps {
		if _, err := tx.Exec(ctx, q); err != nil {
			return nil, fmt.Errorf("failed to reset game: %w", err)
		}
	}

	details, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reset summary: %w", err)
	}
	if err := appendLog(ctx, tx, adminID, model.AdminActionGameReset, nil, string(details)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit game reset: %w", err)
	}
	return &summary, nil
}

func appendLog(ctx context.Context, tx pgx.Tx, adminID int64, action string, targetUserID *int64, details string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_user_id, details, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, adminID, action, targetUserID, details)
	if err != nil {
		return fmt.Errorf("failed to append admin log: %w", err)
	}
	return nil
}

// ListLogs retrieves the most recent audit entries, newest first.
func (r *AdminRepository) ListLogs(ctx context.Context, limit int) ([]*model.AdminLogEntry, error) {
	const query = `
		SELECT id, admin_id, action, target_user_id, details, created_at
		FROM admin_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin logs: %w", err)
	}
	defer rows.Close()

	var entries []*model.AdminLogEntry
	for rows.Next() {
		var e model.AdminLogEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.TargetUserID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin log: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin logs: %w", err)
	}
	return entries, nil
}
