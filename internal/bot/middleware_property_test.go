package bot

import (
	"testing"

	"pgregory.net/rapid"

	"party-game-bot/internal/config"
)

// Admin recognition must be exactly set membership over the configured
// IDs: no other property of the sender may grant access.
func TestAdminCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numAdmins := rapid.IntRange(1, 10).Draw(t, "numAdmins")
		adminIDs := make([]int64, numAdmins)
		for i := 0; i < numAdmins; i++ {
			adminIDs[i] = rapid.Int64Range(1, 1000000000).Draw(t, "adminID")
		}

		cfg := &config.Config{
			Admin: config.AdminConfig{IDs: adminIDs},
		}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")

		expected := false
		for _, id := range adminIDs {
			if id == userID {
				expected = true
				break
			}
		}

		if got := cfg.IsAdmin(userID); got != expected {
			t.Fatalf("admin check mismatch: userID=%d, adminIDs=%v, expected=%v, got=%v",
				userID, adminIDs, expected, got)
		}
	})
}

// Every configured admin ID must be recognized.
func TestAdminCheckKnownAdminProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numAdmins := rapid.IntRange(1, 10).Draw(t, "numAdmins")
		adminIDs := make([]int64, numAdmins)
		for i := 0; i < numAdmins; i++ {
			adminIDs[i] = rapid.Int64Range(1, 1000000000).Draw(t, "adminID")
		}

		cfg := &config.Config{
			Admin: config.AdminConfig{IDs: adminIDs},
		}

		idx := rapid.IntRange(0, numAdmins-1).Draw(t, "adminIndex")
		if !cfg.IsAdmin(adminIDs[idx]) {
			t.Fatalf("known admin ID %d not recognized, adminIDs=%v", adminIDs[idx], adminIDs)
		}
	})
}

// An ID outside the configured set must never pass.
func TestAdminCheckNonAdminProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numAdmins := rapid.IntRange(1, 10).Draw(t, "numAdmins")
		adminIDs := make([]int64, numAdmins)
		adminSet := make(map[int64]bool)
		for i := 0; i < numAdmins; i++ {
			adminIDs[i] = rapid.Int64Range(1, 1000000000).Draw(t, "adminID")
			adminSet[adminIDs[i]] = true
		}

		cfg := &config.Config{
			Admin: config.AdminConfig{IDs: adminIDs},
		}

		var nonAdminID int64
		for {
			nonAdminID = rapid.Int64Range(1, 1000000000).Draw(t, "nonAdminID")
			if !adminSet[nonAdminID] {
				break
			}
		}

		if cfg.IsAdmin(nonAdminID) {
			t.Fatalf("non-admin ID %d recognized as admin, adminIDs=%v", nonAdminID, adminIDs)
		}
	})
}

// An empty admin list locks the console entirely.
func TestAdminCheckEmptyListProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &config.Config{}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		if cfg.IsAdmin(userID) {
			t.Fatalf("empty admin list must reject everyone, but %d passed", userID)
		}
	})
}
