package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/account-service/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// ---------- helpers ----------

// validID rejects non-UUID ids before they reach the uuid column, so a bad
// path segment is a not-found rather than a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}

func (r *AccountRepo) queryAccount(ctx context.Context, q string, args ...any) (domain.Account, error) {
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound()
		}
		if isUniqueViolation(err) {
			return domain.Account{}, domain.ErrEmailAlreadyExists()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

func (r *AccountRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrAccountNotFound()
	}
	return nil
}

// ---------- account.AccountRepo ----------

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Email = strings.TrimSpace(a.Email)
	if a.ID == "" {
		return domain.Account{}, domain.ErrMissingField("id")
	}
	if a.Email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	if a.PasswordHash == "" {
		return domain.Account{}, domain.ErrMissingField("password_hash")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	const q = `
INSERT INTO accounts (id, email, first_name, last_name, phone_number, address, avatar_url,
    password_hash, is_admin, is_verified, verification_code, verification_code_expire,
    created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING ` + accountColumns + `;
`
	return r.queryAccount(ctx, q,
		a.ID, a.Email, a.FirstName, a.LastName, a.PhoneNumber, a.Address, a.AvatarURL,
		a.PasswordHash, a.IsAdmin, a.IsVerified, a.VerificationCode, a.VerificationCodeExpire,
		a.CreatedAt, a.UpdatedAt,
	)
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	if !validID(id) {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1;`
	return r.queryAccount(ctx, q, strings.TrimSpace(id))
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 LIMIT 1;`
	return r.queryAccount(ctx, q, email)
}

func (r *AccountRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfilePatch, now time.Time) (domain.Account, error) {
	if !validID(id) {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	const q = `
UPDATE accounts
SET first_name   = COALESCE($2, first_name),
    last_name    = COALESCE($3, last_name),
    email        = COALESCE($4, email),
    phone_number = COALESCE($5, phone_number),
    address      = CASE WHEN $6::text IS NULL THEN address ELSE NULLIF($6::text, '') END,
    avatar_url   = CASE WHEN $7::text IS NULL THEN avatar_url ELSE NULLIF($7::text, '') END,
    updated_at   = $8
WHERE id = $1
RETURNING ` + accountColumns + `;
`
	return r.queryAccount(ctx, q, id,
		p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.Address, p.AvatarURL, now)
}

// Codes are not unique, so the match is narrowed to one unverified row and
// locked before it is consumed.
func (r *AccountRepo) ConsumeVerificationCode(ctx context.Context, code int, now time.Time) (domain.Account, error) {
	const q = `
UPDATE accounts
SET is_verified = TRUE,
    verification_code = NULL,
    verification_code_expire = NULL,
    updated_at = $2
WHERE id = (
    SELECT id FROM accounts
    WHERE verification_code = $1
      AND is_verified = FALSE
      AND (verification_code_expire IS NULL OR verification_code_expire > $2)
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + accountColumns + `;
`
	return r.queryAccount(ctx, q, code, now)
}

func (r *AccountRepo) SetVerificationToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	if !validID(id) {
		return domain.ErrAccountNotFound()
	}
	const q = `
UPDATE accounts
SET verification_token = $2,
    verification_token_expire = $3
WHERE id = $1;
`
	return r.execOne(ctx, q, id, tokenHash, expire)
}

func (r *AccountRepo) ClearVerificationToken(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrAccountNotFound()
	}
	const q = `
UPDATE accounts
SET verification_token = NULL,
    verification_token_expire = NULL
WHERE id = $1;
`
	return r.execOne(ctx, q, id)
}

func (r *AccountRepo) ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error) {
	const q = `
UPDATE accounts
SET is_verified = TRUE,
    verification_token = NULL,
    verification_token_expire = NULL,
    updated_at = $2
WHERE verification_token = $1
  AND verification_token_expire > $2
RETURNING ` + accountColumns + `;
`
	return r.queryAccount(ctx, q, tokenHash, now)
}

func (r *AccountRepo) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	if !validID(id) {
		return domain.ErrAccountNotFound()
	}
	const q = `
UPDATE accounts
SET reset_password_token = $2,
    reset_password_expire = $3
WHERE id = $1;
`
	return r.execOne(ctx, q, id, tokenHash, expire)
}

func (r *AccountRepo) ClearResetToken(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrAccountNotFound()
	}
	const q = `
UPDATE accounts
SET reset_password_token = NULL,
    reset_password_expire = NULL
WHERE id = $1;
`
	return r.execOne(ctx, q, id)
}

func (r *AccountRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (domain.Account, error) {
	if newPasswordHash == "" {
		return domain.Account{}, domain.ErrMissingField("password_hash")
	}
	const q = `
UPDATE accounts
SET password_hash = $3,
    reset_password_token = NULL,
    reset_password_expire = NULL,
    updated_at = $2
WHERE reset_password_token = $1
  AND reset_password_expire > $2
RETURNING ` + accountColumns + `;
`
	return r.queryAccount(ctx, q, tokenHash, now, newPasswordHash)
}

// RecordLoginFailure is LockoutPolicy.Fail expressed as one UPDATE so that
// concurrent failures cannot lose increments.
func (r *AccountRepo) RecordLoginFailure(ctx context.Context, id string, p domain.LockoutPolicy, now time.Time) (domain.LoginState, error) {
	if !validID(id) {
		return domain.LoginState{}, domain.ErrAccountNotFound()
	}
	p = p.Normalize()
	lockUntil := now.Add(p.LockDuration)

	const q = `
UPDATE accounts
SET login_attempts = CASE
        WHEN lock_until IS NOT NULL AND lock_until > $2::timestamptz THEN login_attempts
        WHEN lock_until IS NOT NULL THEN 1
        ELSE login_attempts + 1
    END,
    lock_until = CASE
        WHEN lock_until IS NOT NULL AND lock_until > $2::timestamptz THEN lock_until
        WHEN lock_until IS NOT NULL THEN
            CASE WHEN 1 >= $3::int THEN $4::timestamptz ELSE NULL END
        WHEN login_attempts + 1 >= $3::int THEN $4::timestamptz
        ELSE NULL
    END,
    updated_at = $2::timestamptz
WHERE id = $1
RETURNING login_attempts, lock_until;
`
	var st domain.LoginState
	err := r.db.QueryRowContext(ctx, q, id, now, p.MaxAttempts, lockUntil).Scan(&st.Attempts, &st.LockUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LoginState{}, domain.ErrAccountNotFound()
		}
		return domain.LoginState{}, domain.ErrDBUnavailable(err)
	}
	return st, nil
}

func (r *AccountRepo) ResetLoginAttempts(ctx context.Context, id string, now time.Time) error {
	if !validID(id) {
		return domain.ErrAccountNotFound()
	}
	const q = `
UPDATE accounts
SET login_attempts = 0,
    lock_until = NULL,
    updated_at = $2
WHERE id = $1;
`
	return r.execOne(ctx, q, id, now)
}

// Ping reports whether the database answers. Used by the readiness probe.
func (r *AccountRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
