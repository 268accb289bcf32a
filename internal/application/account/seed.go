package account

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/account-service/internal/domain"
)

// SeedAdmin creates a verified admin account for local development.
// It is a no-op when the email is already registered.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, domain.ErrMissingField("email/password")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !isAccountNotFound(err) {
		return false, err
	}

	now := s.now()
	_, err := s.creds.Create(ctx, domain.Account{
		ID:          uuid.NewString(),
		Email:       email,
		FirstName:   "Admin",
		LastName:    "User",
		PhoneNumber: "000-0000",
		IsAdmin:     true,
		IsVerified:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, password)
	if err != nil {
		if domain.Is(err, "email_already_exists") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
