package account

import (
	"context"
	"strconv"
	"strings"

	"github.com/baechuer/account-service/internal/domain"
)

// VerifyByCode consumes the numeric code mailed at registration.
// Unknown, expired and already-verified codes are indistinguishable.
func (s *Service) VerifyByCode(ctx context.Context, rawCode string) (domain.Profile, error) {
	code, err := strconv.Atoi(strings.TrimSpace(rawCode))
	if err != nil || code <= 0 {
		return domain.Profile{}, domain.ErrInvalidVerificationCode()
	}

	a, err := s.repo.ConsumeVerificationCode(ctx, code, s.now())
	if err != nil {
		if isAccountNotFound(err) {
			return domain.Profile{}, domain.ErrInvalidVerificationCode()
		}
		return domain.Profile{}, err
	}

	s.audit("email_verified", map[string]string{"account_id": a.ID, "method": "code"})
	return a.Profile(), nil
}

// RequestVerificationToken issues a hashed, expiring verification token and
// mails the raw value. The stored hash is cleared again if the mail fails.
func (s *Service) RequestVerificationToken(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, hash, err := s.secrets.OpaqueToken()
	if err != nil {
		return domain.ErrRandomFailed(err)
	}

	if err := s.repo.SetVerificationToken(ctx, a.ID, hash, s.now().Add(s.tokenTTL)); err != nil {
		return err
	}

	msg := EmailMessage{
		To:      a.Email,
		Subject: "Email Verification",
		Body:    "Please verify your email by clicking the link below:\n\n" + s.link("verify-email", raw),
	}
	if err := s.send(ctx, msg); err != nil {
		if cerr := s.repo.ClearVerificationToken(context.WithoutCancel(ctx), a.ID); cerr != nil {
			s.audit("verification_token_rollback_failed", map[string]string{"account_id": a.ID, "error": cerr.Error()})
		}
		s.audit("verification_email_failed", map[string]string{"account_id": a.ID, "error": err.Error()})
		return domain.ErrEmailDelivery(err)
	}

	s.audit("verification_token_issued", map[string]string{"account_id": a.ID})
	return nil
}

// VerifyByToken consumes a token issued by RequestVerificationToken.
func (s *Service) VerifyByToken(ctx context.Context, rawToken string) (domain.Profile, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Profile{}, domain.ErrInvalidVerificationToken()
	}

	a, err := s.repo.ConsumeVerificationToken(ctx, s.secrets.HashToken(rawToken), s.now())
	if err != nil {
		if isAccountNotFound(err) {
			return domain.Profile{}, domain.ErrInvalidVerificationToken()
		}
		return domain.Profile{}, err
	}

	s.audit("email_verified", map[string]string{"account_id": a.ID, "method": "token"})
	return a.Profile(), nil
}
