package account

import (
	"context"
	"io"
	"time"

	"github.com/baechuer/account-service/internal/domain"
)

/*
AccountRepo
-----------
Persistence port for accounts (the credential store).
Only describes WHAT the account service needs, not HOW it's stored.

Every Consume* method matches and clears its secret in one step, so a
code or token can be used at most once even under concurrent requests.
*/
type AccountRepo interface {
	Create(ctx context.Context, a domain.Account) (domain.Account, error)
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch, now time.Time) (domain.Account, error)

	// Verification (numeric code path)
	ConsumeVerificationCode(ctx context.Context, code int, now time.Time) (domain.Account, error)

	// Verification (hashed token path)
	SetVerificationToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	ClearVerificationToken(ctx context.Context, id string) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error)

	// Password reset
	SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (domain.Account, error)

	// Lockout bookkeeping. RecordLoginFailure applies policy.Fail atomically.
	RecordLoginFailure(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (domain.LoginState, error)
	ResetLoginAttempts(ctx context.Context, id string, now time.Time) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
SecretGenerator
---------------
Numeric verification codes and opaque tokens. Only HashToken(raw) is ever
persisted for opaque tokens.
*/
type SecretGenerator interface {
	VerificationCode() (int, error)
	OpaqueToken() (raw string, hash string, err error)
	HashToken(raw string) string
}

/*
SessionIssuer
-------------
Issues and verifies bearer session tokens (JWT).
Used by service + auth middleware.
*/
type SessionClaims struct {
	AccountID string
	IsAdmin   bool
	Exp       time.Time
}

type SessionIssuer interface {
	Sign(accountID string, isAdmin bool, ttl time.Duration) (string, error)
	Verify(token string) (SessionClaims, error)
}

/*
Mailer
------
Outbound email. Implementations must not retry; the service decides what a
failure means.
*/
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

/*
AvatarStore
-----------
Object storage for avatar images. Upload returns a public URL; Delete takes
that URL back and removes the object.
*/
type AvatarFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type AvatarStore interface {
	Upload(ctx context.Context, file AvatarFile, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}
