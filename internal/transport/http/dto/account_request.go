package dto

import (
	"strings"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/domain"
)

// -------- Registration --------

type RegisterRequest struct {
	FirstName   string `json:"fName" validate:"required,max=100"`
	LastName    string `json:"lName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	Password    string `json:"password" validate:"required,max=72"`
}

func (r *RegisterRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if err := Validate(r); err != nil {
		return err
	}
	return checkPasswordBytes(r.Password)
}

func (r *RegisterRequest) Input() account.RegisterInput {
	return account.RegisterInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Password:    r.Password,
	}
}

// -------- Login --------

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return Validate(r)
}

// -------- Email-only requests (forgot password, send verification) --------

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return Validate(r)
}

// -------- Password reset (token comes from the path) --------

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,max=72"`
}

func (r *ResetPasswordRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	return checkPasswordBytes(r.Password)
}

// checkPasswordBytes applies the byte limit; the max tag counts runes.
func checkPasswordBytes(pw string) error {
	if len(pw) > domain.MaxPasswordBytes {
		return domain.ErrPasswordTooLong()
	}
	return nil
}

// -------- Profile update --------

// UpdateProfileRequest only carries caller-editable fields; anything else in
// the body is dropped by the decoder.
type UpdateProfileRequest struct {
	FirstName   *string `json:"fName" validate:"omitempty,max=100"`
	LastName    *string `json:"lName" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Avatar      *string `json:"avatar" validate:"omitempty,url,max=2048"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Email != nil {
		e := strings.TrimSpace(*r.Email)
		if e == "" {
			return domain.ErrInvalidField("email", "empty")
		}
		r.Email = &e
	}
	return Validate(r)
}

func (r *UpdateProfileRequest) Patch() domain.ProfilePatch {
	return domain.ProfilePatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		AvatarURL:   r.Avatar,
	}
}
