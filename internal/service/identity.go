// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"party-game-bot/internal/model"
	"party-game-bot/internal/pkg/retry"
	"party-game-bot/internal/repository"
)

// IdentityService handles account registration and the flexible
// player lookup used by the admin console.
type IdentityService struct {
	userRepo *repository.UserRepository
}

// NewIdentityService creates a new IdentityService instance.
func NewIdentityService(userRepo *repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// EnsureUser registers the account on first contact and returns it.
// The bool reports whether the account was newly created. Idempotent:
// repeated calls for the same Telegram ID return the same account.
func (s *IdentityService) EnsureUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, bool, error) {
	var user *model.User
	var created bool
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		user, created, err = s.userRepo.GetOrCreate(ctx, telegramID, username, firstName, lastName)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}
	return user, created, nil
}

// FindByIdentifier resolves a free-form player identifier the way an
// admin would type it. Resolution order, first match wins:
//
//  1. numeric Telegram ID
//  2. username (leading @ stripped)
//  3. first name
//  4. last name
//  5. "first last" full name
//
// All name matches are case-insensitive and exact. Ambiguous names
// resolve to the oldest matching account.
func (s *IdentityService) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, repository.ErrUserNotFound
	}

	if telegramID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if user, err := s.userRepo.GetByTelegramID(ctx, telegramID); err == nil {
			return user, nil
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	lookups := []func(context.Context, string) (*model.User, error){
		s.userRepo.GetByUsername,
		s.userRepo.GetByFirstName,
		s.userRepo.GetByLastName,
		s.userRepo.GetByFullName,
	}

	name := strings.TrimPrefix(identifier, "@")
	for _, lookup := range lookups {
		user, err := lookup(ctx, name)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	return nil, repository.ErrUserNotFound
}
