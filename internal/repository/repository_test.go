// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"party-game-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedTestTeam(t *testing.T, pool *pgxpool.Pool, teamID, film string) {
	t.Helper()
	repo := NewTeamRepository(pool)
	link := "https://puzzles.example/" + teamID
	created, err := repo.CreateIfAbsent(context.Background(), &model.Team{
		TeamID:       teamID,
		FilmTitle:    film,
		Character1:   "Hero",
		Character2:   "Sidekick",
		Character1ID: "111111",
		Character2ID: "222222",
		PuzzleLink:   &link,
	})
	require.NoError(t, err)
	require.True(t, created)
}

// ============================================================================
// UserRepository
// ============================================================================

func TestUserRepository_GetOrCreateIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, created, err := repo.GetOrCreate(ctx, 12345, "alice", "Alice", "Smith")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12345), user.TelegramID)
	assert.Equal(t, 0, user.TotalPoints)
	assert.Nil(t, user.TeamID)

	again, created, err := repo.GetOrCreate(ctx, 12345, "alice", "Alice", "Smith")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	n, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepository_NameLookups(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	alice, _, err := repo.GetOrCreate(ctx, 1, "wonder_alice", "Alice", "Smith")
	require.NoError(t, err)
	_, _, err = repo.GetOrCreate(ctx, 2, "bob99", "Bob", "Jones")
	require.NoError(t, err)

	byUsername, err := repo.GetByUsername(ctx, "WONDER_ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byUsername.ID)

	byFirst, err := repo.GetByFirstName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byFirst.ID)

	byLast, err := repo.GetByLastName(ctx, "smith")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byLast.ID)

	byFull, err := repo.GetByFullName(ctx, "Alice Smith")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byFull.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_RankSharesPositionOnTies(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	a, _, _ := userRepo.GetOrCreate(ctx, 1, "a", "A", "")
	b, _, _ := userRepo.GetOrCreate(ctx, 2, "b", "B", "")
	c, _, _ := userRepo.GetOrCreate(ctx, 3, "c", "C", "")

	award := func(userID int64, points int) {
		_, err := subRepo.Create(ctx, CreateParams{
			UserID: userID, Type: model.TypePartyPhoto,
			Status: model.StatusApproved, Points: points,
		})
		require.NoError(t, err)
	}
	award(a.ID, 10)
	award(b.ID, 10)
	award(c.ID, 5)

	// Tied on 10: both rank 1 of 3.
	rank, total, err := userRepo.RankOf(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.Equal(t, 3, total)

	rank, _, err = userRepo.RankOf(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	rank, _, err = userRepo.RankOf(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rank)
}

// ============================================================================
// SubmissionRepository: ledger
// ============================================================================

func TestSubmissionRepository_ApprovedCreateCreditsAtomically(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	sub, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePartyPhoto,
		Status: model.StatusApproved, Points: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, sub.Status)
	assert.Equal(t, 1, sub.PointsAwarded)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TotalPoints)
}

func TestSubmissionRepository_PendingCreditsNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	title := "Alien"
	sub, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sub.Status)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.TotalPoints)
}

func TestSubmissionRepository_DoubleApprovalCreditsOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	sub, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePartyPhoto, Status: model.StatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, subRepo.UpdateStatus(ctx, sub.ID, model.StatusApproved, 20, nil))
	require.NoError(t, subRepo.UpdateStatus(ctx, sub.ID, model.StatusApproved, 20, nil))

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.TotalPoints, "re-approval must credit the delta, not the full value again")
}

func TestSubmissionRepository_UpdateStatusUnknownID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	subRepo := NewSubmissionRepository(pool)
	err := subRepo.UpdateStatus(context.Background(), 99999, model.StatusRejected, 0, nil)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionRepository_ConservationInvariant(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	// Mixed ledger: approved, pending, rejected.
	_, err = subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePartyPhoto, Status: model.StatusApproved, Points: 1,
	})
	require.NoError(t, err)

	pending, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePartyPhoto, Status: model.StatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.UpdateStatus(ctx, pending.ID, model.StatusApproved, 25, nil))

	rejected, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePartyPhoto, Status: model.StatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.UpdateStatus(ctx, rejected.ID, model.StatusRejected, 0, nil))

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	approvedSum, err := subRepo.SumApprovedPoints(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, approvedSum, reloaded.TotalPoints)
	assert.Equal(t, 26, reloaded.TotalPoints)
}

// ============================================================================
// Film claims and easter eggs
// ============================================================================

func TestSubmissionRepository_FilmClaimOncePerUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	title := "The Matrix"
	first, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.ApproveFilm(ctx, first.ID, 20, nil, title))

	// Same film, different casing and whitespace: still a duplicate.
	second, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	err = subRepo.ApproveFilm(ctx, second.ID, 20, nil, "  the matrix ")
	assert.ErrorIs(t, err, ErrFilmAlreadyClaimed)

	// The failed approval must not have credited anything.
	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.TotalPoints)

	claimed, err := subRepo.HasClaimedFilm(ctx, user.ID, "THE MATRIX")
	require.NoError(t, err)
	assert.True(t, claimed)

	films, err := subRepo.ListEasterEggs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Matrix"}, films)
}

func TestSubmissionRepository_DifferentUsersMayClaimSameFilm(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	alice, _, _ := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	bob, _, _ := userRepo.GetOrCreate(ctx, 2, "bob", "Bob", "")

	title := "Dune"
	for _, u := range []*model.User{alice, bob} {
		sub, err := subRepo.Create(ctx, CreateParams{
			UserID: u.ID, Type: model.TypeFilmReference,
			Status: model.StatusPending, FilmTitle: &title,
		})
		require.NoError(t, err)
		require.NoError(t, subRepo.ApproveFilm(ctx, sub.ID, 20, nil, title))
	}

	eggs, err := subRepo.ListAllEasterEggs(ctx)
	require.NoError(t, err)
	assert.Len(t, eggs, 2)
}

// ============================================================================
// Team joining
// ============================================================================

func TestSubmissionRepository_JoinTeamAwardsAtomically(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	seedTestTeam(t, pool, "123456", "Back to the Future")
	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	sub, err := subRepo.JoinTeamWithAward(ctx, user.ID, "123456", 25)
	require.NoError(t, err)
	assert.Equal(t, model.TypeTeamJoin, sub.Type)
	assert.Equal(t, 25, sub.PointsAwarded)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.TeamID)
	assert.Equal(t, "123456", *reloaded.TeamID)
	assert.Equal(t, 25, reloaded.TotalPoints)
}

func TestSubmissionRepository_JoinTeamAtMostOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	seedTestTeam(t, pool, "123456", "Back to the Future")
	seedTestTeam(t, pool, "654321", "The Matrix")
	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	_, err = subRepo.JoinTeamWithAward(ctx, user.ID, "123456", 25)
	require.NoError(t, err)

	// Second join, same or different team: rejected, nothing credited.
	_, err = subRepo.JoinTeamWithAward(ctx, user.ID, "123456", 25)
	assert.ErrorIs(t, err, ErrAlreadyInTeam)
	_, err = subRepo.JoinTeamWithAward(ctx, user.ID, "654321", 25)
	assert.ErrorIs(t, err, ErrAlreadyInTeam)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, reloaded.TotalPoints)
	assert.Equal(t, "123456", *reloaded.TeamID)
}

func TestSubmissionRepository_JoinUnknownTeam(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	_, err = subRepo.JoinTeamWithAward(ctx, user.ID, "999999", 25)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.TotalPoints)
	assert.Nil(t, reloaded.TeamID)
}

// ============================================================================
// Puzzle: at most one approved per user
// ============================================================================

func TestSubmissionRepository_PuzzleApprovedOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	first, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePuzzle, Status: model.StatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.UpdateStatus(ctx, first.ID, model.StatusApproved, 25, nil))

	second, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypePuzzle, Status: model.StatusPending,
	})
	require.NoError(t, err)
	err = subRepo.UpdateStatus(ctx, second.ID, model.StatusApproved, 25, nil)
	assert.ErrorIs(t, err, ErrPuzzleAlreadyDone)

	done, err := subRepo.HasApprovedType(ctx, user.ID, model.TypePuzzle)
	require.NoError(t, err)
	assert.True(t, done)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, reloaded.TotalPoints)
}

// ============================================================================
// TeamRepository
// ============================================================================

func TestTeamRepository_SeedingIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewTeamRepository(pool)
	ctx := context.Background()

	team := &model.Team{
		TeamID: "123456", FilmTitle: "Alien",
		Character1: "Ripley", Character2: "Ash",
		Character1ID: "111111", Character2ID: "012345",
	}

	created, err := repo.CreateIfAbsent(ctx, team)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, team)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetByTeamID(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "Alien", got.FilmTitle)

	_, err = repo.GetByTeamID(ctx, "000000")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTeamRepository_TopTeams(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	teamRepo := NewTeamRepository(pool)
	ctx := context.Background()

	seedTestTeam(t, pool, "111222", "Alien")
	seedTestTeam(t, pool, "333444", "Dune")
	seedTestTeam(t, pool, "555666", "Empty Team Film")

	alice, _, _ := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	bob, _, _ := userRepo.GetOrCreate(ctx, 2, "bob", "Bob", "")
	carol, _, _ := userRepo.GetOrCreate(ctx, 3, "carol", "Carol", "")

	_, err := subRepo.JoinTeamWithAward(ctx, alice.ID, "111222", 25)
	require.NoError(t, err)
	_, err = subRepo.JoinTeamWithAward(ctx, bob.ID, "111222", 25)
	require.NoError(t, err)
	_, err = subRepo.JoinTeamWithAward(ctx, carol.ID, "333444", 25)
	require.NoError(t, err)

	// Extra points for carol so Dune (25+20=45) still trails Alien (50).
	_, err = subRepo.Create(ctx, CreateParams{
		UserID: carol.ID, Type: model.TypePartyPhoto, Status: model.StatusApproved, Points: 20,
	})
	require.NoError(t, err)

	ranks, err := teamRepo.TopTeams(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 2, "teams with no members stay off the board")
	assert.Equal(t, "111222", ranks[0].TeamID)
	assert.Equal(t, 50, ranks[0].TotalPoints)
	assert.Equal(t, 2, ranks[0].MemberCount)
	assert.Equal(t, "333444", ranks[1].TeamID)
	assert.Equal(t, 45, ranks[1].TotalPoints)

	active, err := teamRepo.CountActiveTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, active)
}

// ============================================================================
// AdminRepository
// ============================================================================

func TestAdminRepository_AdjustPointsAudited(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	adminRepo := NewAdminRepository(pool)
	ctx := context.Background()

	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	adj, err := adminRepo.AdjustPoints(ctx, user.ID, 15, "costume contest", 999)
	require.NoError(t, err)
	assert.Equal(t, 0, adj.OldTotal)
	assert.Equal(t, 15, adj.NewTotal)

	adj, err = adminRepo.AdjustPoints(ctx, user.ID, -5, "correction", 999)
	require.NoError(t, err)
	assert.Equal(t, 15, adj.OldTotal)
	assert.Equal(t, 10, adj.NewTotal)

	_, err = adminRepo.AdjustPoints(ctx, 99999, 5, "nope", 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	logs, err := adminRepo.ListLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.AdminActionManualPoints, logs[0].Action)
	assert.Equal(t, int64(999), logs[0].AdminID)
}

func TestAdminRepository_ResetKeepsAccountsAndTeams(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	teamRepo := NewTeamRepository(pool)
	adminRepo := NewAdminRepository(pool)
	ctx := context.Background()

	seedTestTeam(t, pool, "123456", "Alien")
	user, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	_, err = subRepo.JoinTeamWithAward(ctx, user.ID, "123456", 25)
	require.NoError(t, err)

	title := "Alien"
	claim, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.ApproveFilm(ctx, claim.ID, 20, nil, title))

	summary, err := adminRepo.ResetGame(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Submissions)
	assert.Equal(t, 1, summary.EasterEggs)
	assert.Equal(t, 1, summary.Users)
	assert.Equal(t, 1, summary.Teams)

	// Account survives, zeroed and teamless.
	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.TotalPoints)
	assert.Nil(t, reloaded.TeamID)

	// Team registry survives, so the game can restart immediately.
	_, err = teamRepo.GetByTeamID(ctx, "123456")
	require.NoError(t, err)

	n, err := subRepo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Re-claiming the film after reset works again.
	claim2, err := subRepo.Create(ctx, CreateParams{
		UserID: user.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.ApproveFilm(ctx, claim2.ID, 20, nil, title))
}

// ============================================================================
// End-to-end ledger walk
// ============================================================================

// Mirrors one player's evening: party photo (+1), team join (+25),
// duplicate join (no-op), film claim (+20), duplicate film (no-op),
// manual correction (-10).
func TestLedgerScenario(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	subRepo := NewSubmissionRepository(pool)
	adminRepo := NewAdminRepository(pool)
	ctx := context.Background()

	seedTestTeam(t, pool, "123456", "Back to the Future")
	alice, _, err := userRepo.GetOrCreate(ctx, 1, "alice", "Alice", "")
	require.NoError(t, err)

	points := func() int {
		u, err := userRepo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		return u.TotalPoints
	}

	_, err = subRepo.Create(ctx, CreateParams{
		UserID: alice.ID, Type: model.TypePartyPhoto,
		Status: model.StatusApproved, Points: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, points())

	_, err = subRepo.JoinTeamWithAward(ctx, alice.ID, "123456", 25)
	require.NoError(t, err)
	assert.Equal(t, 26, points())

	_, err = subRepo.JoinTeamWithAward(ctx, alice.ID, "123456", 25)
	assert.ErrorIs(t, err, ErrAlreadyInTeam)
	assert.Equal(t, 26, points())

	title := "Back to the Future"
	claim, err := subRepo.Create(ctx, CreateParams{
		UserID: alice.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	require.NoError(t, subRepo.ApproveFilm(ctx, claim.ID, 20, nil, title))
	assert.Equal(t, 46, points())

	claim2, err := subRepo.Create(ctx, CreateParams{
		UserID: alice.ID, Type: model.TypeFilmReference,
		Status: model.StatusPending, FilmTitle: &title,
	})
	require.NoError(t, err)
	err = subRepo.ApproveFilm(ctx, claim2.ID, 20, nil, title)
	assert.ErrorIs(t, err, ErrFilmAlreadyClaimed)
	assert.Equal(t, 46, points())

	_, err = adminRepo.AdjustPoints(ctx, alice.ID, -10, "costume penalty", 999)
	require.NoError(t, err)
	assert.Equal(t, 36, points())

	// Breakdown reflects the ledger.
	breakdown, err := subRepo.BreakdownByUser(ctx, alice.ID)
	require.NoError(t, err)
	byType := make(map[model.SubmissionType]TypeBreakdown)
	for _, b := range breakdown {
		byType[b.Type] = b
	}
	assert.Equal(t, 1, byType[model.TypePartyPhoto].ApprovedCount)
	assert.Equal(t, 1, byType[model.TypeTeamJoin].ApprovedCount)
	assert.Equal(t, 2, byType[model.TypeFilmReference].Count)
	assert.Equal(t, 1, byType[model.TypeFilmReference].ApprovedCount)
	assert.Equal(t, 20, byType[model.TypeFilmReference].ApprovedPoints)
}
