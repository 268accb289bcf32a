package account

import (
	"context"
	"errors"
	"time"

	"github.com/baechuer/account-service/internal/domain"
)

// Credentials is the only write path for passwords. Every operation that
// stores a password hashes it first, synchronously, and aborts on failure.
type Credentials struct {
	repo   AccountRepo
	hasher PasswordHasher
}

func NewCredentials(repo AccountRepo, hasher PasswordHasher) *Credentials {
	return &Credentials{repo: repo, hasher: hasher}
}

// Create persists a new account with password stored as its hash.
func (c *Credentials) Create(ctx context.Context, a domain.Account, password string) (domain.Account, error) {
	if password == "" {
		return domain.Account{}, domain.ErrMissingField("password")
	}
	hash, err := c.hash(password)
	if err != nil {
		return domain.Account{}, err
	}
	a.PasswordHash = hash
	return c.repo.Create(ctx, a)
}

// ResetPassword sets password on the account holding the unexpired reset
// token hash and clears the token in the same write.
func (c *Credentials) ResetPassword(ctx context.Context, tokenHash string, now time.Time, password string) (domain.Account, error) {
	if password == "" {
		return domain.Account{}, domain.ErrMissingField("password")
	}
	hash, err := c.hash(password)
	if err != nil {
		return domain.Account{}, err
	}
	return c.repo.ConsumeResetToken(ctx, tokenHash, now, hash)
}

// Matches reports whether password matches the stored hash.
func (c *Credentials) Matches(a domain.Account, password string) bool {
	if a.PasswordHash == "" || password == "" {
		return false
	}
	return c.hasher.Compare(a.PasswordHash, password) == nil
}

func (c *Credentials) hash(password string) (string, error) {
	if len(password) > domain.MaxPasswordBytes {
		return "", domain.ErrPasswordTooLong()
	}
	h, err := c.hasher.Hash(password)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return "", de
		}
		return "", domain.ErrHashFailed(err)
	}
	return h, nil
}
