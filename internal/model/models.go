// Package model defines the data models for the party game bot.
package model

import "time"

// SubmissionType identifies the category of a scored action.
type SubmissionType string

// Submission types.
const (
	TypePartyPhoto    SubmissionType = "party_photo"    // Plain party photo, auto-approved
	TypeFilmReference SubmissionType = "film_reference" // Film easter-egg claim, oracle-verified
	TypeTeamJoin      SubmissionType = "team_join"      // Successful team pairing
	TypePuzzle        SubmissionType = "puzzle"         // Solved-puzzle screenshot, oracle-verified
)

// SubmissionStatus is the lifecycle state of a submission.
// pending -> approved | rejected; both terminal.
type SubmissionStatus string

// Submission statuses.
const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// User represents one Telegram player account.
// total_points is a denormalized sum maintained by the submission
// repository inside the same transaction as the submission write.
type User struct {
	ID          int64     `db:"id"`
	TelegramID  int64     `db:"telegram_id"`
	Username    string    `db:"username"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	TeamID      *string   `db:"team_id"`
	TotalPoints int       `db:"total_points"`
	IsAdmin     bool      `db:"is_admin"`
	CreatedAt   time.Time `db:"created_at"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Player"
}

// Team is a fixed pairing unit tied to a film theme. The six-digit
// team_id is the sum of the two character IDs and doubles as the
// business key. Teams are seeded at startup and read-only afterwards.
type Team struct {
	ID           int64     `db:"id"`
	TeamID       string    `db:"team_id"`
	FilmTitle    string    `db:"film_title"`
	Character1   string    `db:"character_1"`
	Character2   string    `db:"character_2"`
	Character1ID string    `db:"character_1_id"`
	Character2ID string    `db:"character_2_id"`
	PuzzleLink   *string   `db:"puzzle_link"`
	CreatedAt    time.Time `db:"created_at"`
}

// Submission is one scored action by one user.
type Submission struct {
	ID            int64            `db:"id"`
	UserID        int64            `db:"user_id"`
	Type          SubmissionType   `db:"submission_type"`
	Status        SubmissionStatus `db:"status"`
	PointsAwarded int              `db:"points_awarded"`
	PhotoFileID   *string          `db:"photo_file_id"`
	PhotoPath     *string          `db:"photo_path"`
	Caption       *string          `db:"caption"`
	FilmTitle     *string          `db:"film_title"`
	AIEvaluation  *string          `db:"ai_evaluation"`
	CreatedAt     time.Time        `db:"created_at"`
}

// EasterEgg marks that a user has successfully claimed a film
// reference. At most one row per (user, normalized film title),
// enforced by a uniqueness constraint.
type EasterEgg struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	FilmTitle    string    `db:"film_title"`
	RecognizedAt time.Time `db:"recognized_at"`
}

// AdminLogEntry is one row of the append-only audit trail for manual
// administrative mutations.
type AdminLogEntry struct {
	ID           int64     `db:"id"`
	AdminID      int64     `db:"admin_id"`
	Action       string    `db:"action"`
	TargetUserID *int64    `db:"target_user_id"`
	Details      string    `db:"details"`
	CreatedAt    time.Time `db:"created_at"`
}

// Admin log actions.
const (
	AdminActionManualPoints = "MANUAL_POINTS"
	AdminActionGameReset    = "GAME_RESET"
)

// TeamRank is a leaderboard row for a team: total of the members'
// points plus the member count.
type TeamRank struct {
	TeamID      string `db:"team_id"`
	FilmTitle   string `db:"film_title"`
	MemberCount int    `db:"member_count"`
	TotalPoints int    `db:"total_points"`
}
