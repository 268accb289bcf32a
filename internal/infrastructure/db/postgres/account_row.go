package postgres

import (
	"time"

	"github.com/baechuer/account-service/internal/domain"
)

const accountColumns = `id, email, first_name, last_name, phone_number, address, avatar_url,
password_hash, is_admin, is_verified,
verification_code, verification_code_expire,
verification_token, verification_token_expire,
reset_password_token, reset_password_expire,
login_attempts, lock_until, created_at, updated_at`

type accountRow struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     *string
	AvatarURL   *string

	PasswordHash string
	IsAdmin      bool
	IsVerified   bool

	VerificationCode        *int
	VerificationCodeExpire  *time.Time
	VerificationToken       *string
	VerificationTokenExpire *time.Time
	ResetPasswordToken      *string
	ResetPasswordExpire     *time.Time

	LoginAttempts int
	LockUntil     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(s scanner) (accountRow, error) {
	var ar accountRow
	err := s.Scan(
		&ar.ID,
		&ar.Email,
		&ar.FirstName,
		&ar.LastName,
		&ar.PhoneNumber,
		&ar.Address,
		&ar.AvatarURL,
		&ar.PasswordHash,
		&ar.IsAdmin,
		&ar.IsVerified,
		&ar.VerificationCode,
		&ar.VerificationCodeExpire,
		&ar.VerificationToken,
		&ar.VerificationTokenExpire,
		&ar.ResetPasswordToken,
		&ar.ResetPasswordExpire,
		&ar.LoginAttempts,
		&ar.LockUntil,
		&ar.CreatedAt,
		&ar.UpdatedAt,
	)
	return ar, err
}

func toDomainAccount(ar accountRow) domain.Account {
	return domain.Account{
		ID:          ar.ID,
		Email:       ar.Email,
		FirstName:   ar.FirstName,
		LastName:    ar.LastName,
		PhoneNumber: ar.PhoneNumber,
		Address:     ar.Address,
		AvatarURL:   ar.AvatarURL,

		PasswordHash: ar.PasswordHash,
		IsAdmin:      ar.IsAdmin,
		IsVerified:   ar.IsVerified,

		VerificationCode:        ar.VerificationCode,
		VerificationCodeExpire:  ar.VerificationCodeExpire,
		VerificationToken:       ar.VerificationToken,
		VerificationTokenExpire: ar.VerificationTokenExpire,
		ResetPasswordToken:      ar.ResetPasswordToken,
		ResetPasswordExpire:     ar.ResetPasswordExpire,

		LoginAttempts: ar.LoginAttempts,
		LockUntil:     ar.LockUntil,
		CreatedAt:     ar.CreatedAt,
		UpdatedAt:     ar.UpdatedAt,
	}
}
