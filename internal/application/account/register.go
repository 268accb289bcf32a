package account

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/account-service/internal/domain"
)

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

func (in RegisterInput) missingField() string {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return "fName"
	case strings.TrimSpace(in.LastName) == "":
		return "lName"
	case strings.TrimSpace(in.Email) == "":
		return "email"
	case strings.TrimSpace(in.PhoneNumber) == "":
		return "phoneNumber"
	case in.Password == "":
		return "password"
	}
	return ""
}

// Register creates an unverified account holding a fresh numeric verification
// code and mails the code link in the background.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Profile, error) {
	if f := in.missingField(); f != "" {
		return domain.Profile{}, domain.ErrMissingField(f)
	}
	email := strings.TrimSpace(in.Email)

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return domain.Profile{}, domain.ErrEmailAlreadyExists()
	} else if !isAccountNotFound(err) {
		return domain.Profile{}, err
	}

	code, err := s.secrets.VerificationCode()
	if err != nil {
		return domain.Profile{}, domain.ErrRandomFailed(err)
	}

	now := s.now()
	a := domain.Account{
		ID:               uuid.NewString(),
		Email:            email,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		PhoneNumber:      strings.TrimSpace(in.PhoneNumber),
		VerificationCode: &code,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if s.codeTTL > 0 {
		exp := now.Add(s.codeTTL)
		a.VerificationCodeExpire = &exp
	}

	// the store enforces email uniqueness for racing registrations
	created, err := s.creds.Create(ctx, a, in.Password)
	if err != nil {
		return domain.Profile{}, err
	}

	msg := EmailMessage{
		To:      created.Email,
		Subject: "Verify Your Email",
		Body:    "Please verify your email by clicking the link below:\n\n" + s.link("verify", strconv.Itoa(code)),
	}
	s.dispatchAsync(ctx, msg, func(err error) {
		s.audit("verification_email_failed", map[string]string{
			"account_id": created.ID,
			"error":      err.Error(),
		})
	})

	s.audit("account_registered", map[string]string{"account_id": created.ID})
	return created.Profile(), nil
}
