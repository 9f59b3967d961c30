package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"projectboard/model"
	"projectboard/repositories"
)

const maxSearchResults = 10

type UserService struct {
	accounts repositories.AccountStore
}

func NewUserService(accounts repositories.AccountStore) *UserService {
	return &UserService{accounts: accounts}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.accounts.GetUser(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Search finds users whose email starts with prefix, for invite
// autocomplete. An empty prefix matches nobody.
func (s *UserService) Search(ctx context.Context, prefix string) ([]model.User, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return []model.User{}, nil
	}
	users, err := s.accounts.SearchUsers(ctx, prefix, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
