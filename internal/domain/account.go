package domain

import "time"

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

// Account is the persisted record. It carries credential material and must
// not leave the service boundary; use Profile for anything returned to callers.
type Account struct {
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
	VerificationToken       *string // sha256 hex
	VerificationTokenExpire *time.Time
	ResetPasswordToken      *string // sha256 hex
	ResetPasswordExpire     *time.Time

	LoginAttempts int
	LockUntil     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked is derived from LockUntil, never stored.
func (a Account) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// Profile is the read model handed to callers.
type Profile struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     *string
	AvatarURL   *string
	IsAdmin     bool
	IsVerified  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Account) Profile() Profile {
	return Profile{
		ID:          a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		PhoneNumber: a.PhoneNumber,
		Address:     a.Address,
		AvatarURL:   a.AvatarURL,
		IsAdmin:     a.IsAdmin,
		IsVerified:  a.IsVerified,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ProfilePatch holds the caller-editable fields. nil means "leave unchanged".
type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Address     *string
	AvatarURL   *string
}

func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.PhoneNumber == nil && p.Address == nil && p.AvatarURL == nil
}
