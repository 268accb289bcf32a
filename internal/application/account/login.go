package account

import (
	"context"
	"strings"

	"github.com/baechuer/account-service/internal/domain"
)

// Login checks the lock before the password, so a locked account never
// reaches the hasher and its counter stays put.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return LoginResult{}, domain.ErrMissingField("email")
	}
	if password == "" {
		return LoginResult{}, domain.ErrMissingField("password")
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isAccountNotFound(err) {
			return LoginResult{}, domain.ErrUserDoesNotExist()
		}
		return LoginResult{}, err
	}

	now := s.now()
	if st := a.LoginState(); st.Locked(now) {
		return LoginResult{}, domain.ErrAccountLocked(domain.MinutesRemaining(st, now))
	}

	if !s.creds.Matches(a, password) {
		st, err := s.repo.RecordLoginFailure(ctx, a.ID, s.lockout, now)
		if err != nil {
			return LoginResult{}, err
		}
		s.audit("login_failed", map[string]string{"account_id": a.ID})

		if st.Locked(now) {
			s.audit("account_locked", map[string]string{"account_id": a.ID})
			return LoginResult{}, domain.ErrTooManyAttempts(domain.MinutesRemaining(st, now))
		}
		return LoginResult{}, domain.ErrInvalidCredentials(s.lockout.AttemptsLeft(st))
	}

	if a.LoginAttempts != 0 || a.LockUntil != nil {
		if err := s.repo.ResetLoginAttempts(ctx, a.ID, now); err != nil {
			return LoginResult{}, err
		}
		a.LoginAttempts = 0
		a.LockUntil = nil
	}

	tok, err := s.signer.Sign(a.ID, a.IsAdmin, s.sessionTTL)
	if err != nil {
		return LoginResult{}, domain.ErrTokenSignFailed(err)
	}

	s.audit("login_succeeded", map[string]string{"account_id": a.ID})
	return LoginResult{
		Profile:   a.Profile(),
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(s.sessionTTL.Seconds()),
	}, nil
}

// Authenticate verifies a bearer session token.
func (s *Service) Authenticate(token string) (SessionClaims, error) {
	if strings.TrimSpace(token) == "" {
		return SessionClaims{}, domain.ErrTokenMissing()
	}
	c, err := s.signer.Verify(token)
	if err != nil {
		return SessionClaims{}, domain.ErrTokenInvalid()
	}
	return c, nil
}
