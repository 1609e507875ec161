package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"party-game-bot/internal/model"
)

// Uniqueness constraints backing the check-then-act eligibility rules.
// A violation maps to the corresponding "already done" outcome instead
// of surfacing as a storage error.
const (
	constraintEasterEggOnce = "uq_easter_eggs_user_film"
	constraintPuzzleOnce    = "uq_submissions_puzzle_once"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// NormalizeFilmTitle is the canonical form used for duplicate-claim
// checks: surrounding whitespace trimmed, lower-cased. Display strings
// keep the submitter's casing.
func NormalizeFilmTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SubmissionRepository is the scored-action ledger. Every write that
// touches points runs the submission row and the owning account's
// total_points in one transaction, so no reader can observe an
// approved submission next to a stale total.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository instance.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const submissionColumns = `id, user_id, submission_type, status, points_awarded, photo_file_id, photo_path, caption, film_title, ai_evaluation, created_at`

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	var s model.Submission
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Type,
		&s.Status,
		&s.PointsAwarded,
		&s.PhotoFileID,
		&s.PhotoPath,
		&s.Caption,
		&s.FilmTitle,
		&s.AIEvaluation,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateParams holds the fields for a new submission row.
type CreateParams struct {
	UserID      int64
	Type        model.SubmissionType
	Status      model.SubmissionStatus
	Points      int
	PhotoFileID *string
	PhotoPath   *string
	Caption     *string
	FilmTitle   *string
}

// Create persists a submission. When the status is approved and the
// point value is positive, the owning account's total_points is
// credited in the same transaction. Pending submissions credit
// nothing until UpdateStatus approves them.
func (r *SubmissionRepository) Create(ctx context.Context, p CreateParams) (*model.Submission, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sub, err := insertSubmission(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	if p.Status == model.StatusApproved && p.Points > 0 {
		if err := creditPoints(ctx, tx, p.UserID, p.Points); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}
	return sub, nil
}

func insertSubmission(ctx context.Context, tx pgx.Tx, p CreateParams) (*model.Submission, error) {
	const query = `
		INSERT INTO submissions (user_id, submission_type, status, points_awarded, photo_file_id, photo_path, caption, film_title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING ` + submissionColumns

	sub, err := scanSubmission(tx.QueryRow(ctx, query,
		p.UserID, p.Type, p.Status, p.Points, p.PhotoFileID, p.PhotoPath, p.Caption, p.FilmTitle))
	if err != nil {
		if isUniqueViolation(err, constraintPuzzleOnce) {
			return nil, ErrPuzzleAlreadyDone
		}
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}
	return sub, nil
}

func creditPoints(ctx context.Context, tx pgx.Tx, userID int64, delta int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET total_points = total_points + $2 WHERE id = $1`, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to credit points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateStatus transitions a submission out of pending. When the new
// status is approved, the account is credited only the difference
// between the supplied and previously stored point values, so calling
// it twice never double-credits. Returns ErrSubmissionNotFound for an
// unknown id; the caller decides how loudly to log that.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, submissionID int64, status model.SubmissionStatus, points int, aiEvaluation *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := updateStatusInTx(ctx, tx, submissionID, status, points, aiEvaluation); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

func updateStatusInTx(ctx context.Context, tx pgx.Tx, submissionID int64, status model.SubmissionStatus, points int, aiEvaluation *string) error {
	var userID int64
	var oldPoints int
	err := tx.QueryRow(ctx,
		`SELECT user_id, points_awarded FROM submissions WHERE id = $1 FOR UPDATE`,
		submissionID).Scan(&userID, &oldPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to lock submission: %w", err)
	}

	newPoints := oldPoints
	if status == model.StatusApproved {
		newPoints = points
	}

	_, err = tx.Exec(ctx,
		`UPDATE submissions SET status = $2, points_awarded = $3, ai_evaluation = COALESCE($4, ai_evaluation) WHERE id = $1`,
		submissionID, status, newPoints, aiEvaluation)
	if err != nil {
		if isUniqueViolation(err, constraintPuzzleOnce) {
			return ErrPuzzleAlreadyDone
		}
		return fmt.Errorf("failed to update submission: %w", err)
	}

	if delta := newPoints - oldPoints; status == model.StatusApproved && delta != 0 {
		if err := creditPoints(ctx, tx, userID, delta); err != nil {
			return err
		}
	}
	return nil
}

// ApproveFilm approves a pending film-reference submission and records
// the claimed film as an easter egg, all in one transaction. A
// concurrent claim of the same title loses on the easter-egg
// uniqueness constraint and gets ErrFilmAlreadyClaimed with nothing
// written.
func (r *SubmissionRepository) ApproveFilm(ctx context.Context, submissionID int64, points int, aiEvaluation *string, filmTitle string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int64
	if err := tx.QueryRow(ctx,
		`SELECT user_id FROM submissions WHERE id = $1`, submissionID).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to load submission: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO easter_eggs (user_id, film_title, recognized_at) VALUES ($1, $2, NOW())`,
		userID, strings.TrimSpace(filmTitle))
	if err != nil {
		if isUniqueViolation(err, constraintEasterEggOnce) {
			return ErrFilmAlreadyClaimed
		}
		return fmt.Errorf("failed to record easter egg: %w", err)
	}

	if err := updateStatusInTx(ctx, tx, submissionID, model.StatusApproved, points, aiEvaluation); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit film approval: %w", err)
	}
	return nil
}

// JoinTeamWithAward sets the account's team affiliation and creates
// the approved team_join submission with its point award in a single
// transaction. The affiliation update is guarded by team_id IS NULL,
// so concurrent joins race on the row update and exactly one wins.
func (r *SubmissionRepository) JoinTeamWithAward(ctx context.Context, userID int64, teamID string, points int) (*model.Submission, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM teams WHERE team_id = $1)`, teamID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check team: %w", err)
	}
	if !exists {
		return nil, ErrTeamNotFound
	}

	tag, err := tx.Exec(ctx,
		`UPDATE users SET team_id = $2 WHERE id = $1 AND team_id IS NULL`, userID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to set team affiliation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the account does not exist or it already has a team.
		var found bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&found); err != nil {
			return nil, fmt.Errorf("failed to check user: %w", err)
		}
		if !found {
			return nil, ErrUserNotFound
		}
		return nil, ErrAlreadyInTeam
	}

	caption := "Team: " + teamID
	sub, err := insertSubmission(ctx, tx, CreateParams{
		UserID:  userID,
		Type:    model.TypeTeamJoin,
		Status:  model.StatusApproved,
		Points:  points,
		Caption: &caption,
	})
	if err != nil {
		return nil, err
	}

	if points > 0 {
		if err := creditPoints(ctx, tx, userID, points); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit team join: %w", err)
	}
	return sub, nil
}

// SetPhotoPath records where the submission's photo was stored on disk.
func (r *SubmissionRepository) SetPhotoPath(ctx context.Context, submissionID int64, path string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET photo_path = $2 WHERE id = $1`, submissionID, path)
	if err != nil {
		return fmt.Errorf("failed to set photo path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// GetByID retrieves a submission by id.
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	const query = `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// HasApprovedType reports whether the user has at least one approved
// submission of the given type. Used for the puzzle-once eligibility
// pre-check.
func (r *SubmissionRepository) HasApprovedType(ctx context.Context, userID int64, st model.SubmissionType) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM submissions
			WHERE user_id = $1 AND submission_type = $2 AND status = 'approved'
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, st).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check approved submissions: %w", err)
	}
	return exists, nil
}

// HasClaimedFilm reports whether the user already holds an easter egg
// for the given title (normalized comparison).
func (r *SubmissionRepository) HasClaimedFilm(ctx context.Context, userID int64, filmTitle string) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM easter_eggs
			WHERE user_id = $1 AND LOWER(film_title) = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, NormalizeFilmTitle(filmTitle)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check film claim: %w", err)
	}
	return exists, nil
}

// ListEasterEggs retrieves the user's claimed film titles in claim order.
func (r *SubmissionRepository) ListEasterEggs(ctx context.Context, userID int64) ([]string, error) {
	const query = `SELECT film_title FROM easter_eggs WHERE user_id = $1 ORDER BY recognized_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query easter eggs: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan easter egg: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating easter eggs: %w", err)
	}
	return titles, nil
}

// ListAllEasterEggs retrieves every easter egg row, oldest first.
func (r *SubmissionRepository) ListAllEasterEggs(ctx context.Context) ([]*model.EasterEgg, error) {
	const query = `SELECT id, user_id, film_title, recognized_at FROM easter_eggs ORDER BY recognized_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query easter eggs: %w", err)
	}
	defer rows.Close()

	var eggs []*model.EasterEgg
	for rows.Next() {
		var egg model.EasterEgg
		if err := rows.Scan(&egg.ID, &egg.UserID, &egg.FilmTitle, &egg.RecognizedAt); err != nil {
			return nil, fmt.Errorf("failed to scan easter egg: %w", err)
		}
		eggs = append(eggs, &egg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating easter eggs: %w", err)
	}
	return eggs, nil
}

// TypeBreakdown is a per-category slice of a user's ledger: how many
// submissions of the type exist, how many were approved, and the
// approved point subtotal.
type TypeBreakdown struct {
	Type           model.SubmissionType
	Count          int
	ApprovedCount  int
	ApprovedPoints int
}

// BreakdownByUser computes the per-type breakdown for one account.
func (r *SubmissionRepository) BreakdownByUser(ctx context.Context, userID int64) ([]TypeBreakdown, error) {
	const query = `
		SELECT
			submission_type,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COALESCE(SUM(points_awarded) FILTER (WHERE status = 'approved'), 0)
		FROM submissions
		WHERE user_id = $1
		GROUP BY submission_type
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdown: %w", err)
	}
	defer rows.Close()

	var out []TypeBreakdown
	for rows.Next() {
		var b TypeBreakdown
		if err := rows.Scan(&b.Type, &b.Count, &b.ApprovedCount, &b.ApprovedPoints); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakdown: %w", err)
	}
	return out, nil
}

// CountAllByType counts submissions of one type across all accounts.
func (r *SubmissionRepository) CountAllByType(ctx context.Context, st model.SubmissionType) (int, error) {
	const query = `SELECT COUNT(*) FROM submissions WHERE submission_type = $1`

	var n int
	if err := r.pool.QueryRow(ctx, query, st).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count submissions by type: %w", err)
	}
	return n, nil
}

// CountAll counts every submission row.
func (r *SubmissionRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return n, nil
}

// SumApprovedPoints sums points_awarded over a user's approved
// submissions. Used by the conservation-invariant checks.
func (r *SubmissionRepository) SumApprovedPoints(ctx context.Context, userID int64) (int, error) {
	const query = `
		SELECT COALESCE(SUM(points_awarded), 0)
		FROM submissions
		WHERE user_id = $1 AND status = 'approved'
	`

	var n int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to sum approved points: %w", err)
	}
	return n, nil
}
