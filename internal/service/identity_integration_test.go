package service

import (
	"context"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"party-game-bot/internal/repository"
)

func setupIdentityTest(t *testing.T) (*IdentityService, func()) {
	if exec.Command("docker", "info").Run() != nil {
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
	require.NoError(t, repository.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return NewIdentityService(repository.NewUserRepository(pool)), cleanup
}

// Resolution order: Telegram ID, username, first name, last name,
// full name. The fixtures are built so each later stage only triggers
// when every earlier one misses.
func TestFindByIdentifier_Precedence(t *testing.T) {
	identity, cleanup := setupIdentityTest(t)
	defer cleanup()
	ctx := context.Background()

	alice, _, err := identity.EnsureUser(ctx, 1001, "wonder", "Alice", "Liddell")
	require.NoError(t, err)
	bob, _, err := identity.EnsureUser(ctx, 1002, "builder", "Bob", "Wonder")
	require.NoError(t, err)

	// A username that is also another player's last name: the username
	// stage runs first and wins.
	got, err := identity.FindByIdentifier(ctx, "wonder")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	// Numeric input resolves as Telegram ID.
	got, err = identity.FindByIdentifier(ctx, strconv.FormatInt(bob.TelegramID, 10))
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	// Leading @ strips before the username stage.
	got, err = identity.FindByIdentifier(ctx, "@builder")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	// First name, case-insensitive.
	got, err = identity.FindByIdentifier(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	// Last name only triggers when no username or first name matches.
	got, err = identity.FindByIdentifier(ctx, "liddell")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	// Full "first last" form.
	got, err = identity.FindByIdentifier(ctx, "Bob Wonder")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = identity.FindByIdentifier(ctx, "nobody at all")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = identity.FindByIdentifier(ctx, "   ")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

// A numeric string that matches no Telegram ID may still resolve as a
// name in a later stage.
func TestFindByIdentifier_NumericNameFallback(t *testing.T) {
	identity, cleanup := setupIdentityTest(t)
	defer cleanup()
	ctx := context.Background()

	// A player whose first name is literally "42".
	weird, _, err := identity.EnsureUser(ctx, 2001, "answer", "42", "")
	require.NoError(t, err)

	got, err := identity.FindByIdentifier(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, weird.ID, got.ID)
}
