package service

import (
	"context"

	"payment_reconciler/models"
	"payment_reconciler/pkg/repository"
)

type AuthService struct {
	repos repository.Authorization
}

func NewAuthService(repos repository.Authorization) *AuthService {
	return &AuthService{
		repos: repos,
	}
}

// Resolve turns a verified token subject into a principal. The admin flag
// comes from the store, not from the token.
func (s *AuthService) Resolve(ctx context.Context, userID, email string) (models.Principal, error) {
	user, err := s.repos.EnsureUser(ctx, userID, email)
	if err != nil {
		return models.Principal{}, err
	}
	return models.Principal{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
}
