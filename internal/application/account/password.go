package account

import (
	"context"
	"strings"

	"github.com/baechuer/account-service/internal/domain"
)

// ForgotPassword stores the hash of a fresh reset token and mails the raw
// token. A failed send clears the stored hash before returning.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isAccountNotFound(err) {
			return domain.ErrEmailNotFound()
		}
		return err
	}

	raw, hash, err := s.secrets.OpaqueToken()
	if err != nil {
		return domain.ErrRandomFailed(err)
	}
	if err := s.repo.SetResetToken(ctx, a.ID, hash, s.now().Add(s.tokenTTL)); err != nil {
		return err
	}

	msg := EmailMessage{
		To:      a.Email,
		Subject: "Reset Password",
		Body:    "Reset your password by clicking on the link below:\n\n" + s.link("password/reset", raw),
	}
	if err := s.send(ctx, msg); err != nil {
		if cerr := s.repo.ClearResetToken(context.WithoutCancel(ctx), a.ID); cerr != nil {
			s.audit("reset_token_rollback_failed", map[string]string{"account_id": a.ID, "error": cerr.Error()})
		}
		return domain.ErrEmailDelivery(err)
	}

	s.audit("password_reset_requested", map[string]string{"account_id": a.ID})
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset token.
// The token is cleared in the same write, so it works once.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.ErrInvalidResetToken()
	}
	if newPassword == "" {
		return domain.ErrMissingField("password")
	}

	a, err := s.creds.ResetPassword(ctx, s.secrets.HashToken(rawToken), s.now(), newPassword)
	if err != nil {
		if isAccountNotFound(err) {
			return domain.ErrInvalidResetToken()
		}
		return err
	}

	s.audit("password_reset", map[string]string{"account_id": a.ID})
	return nil
}
