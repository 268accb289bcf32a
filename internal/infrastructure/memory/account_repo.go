package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/account-service/internal/domain"
)

// AccountRepo is a process-local credential store for dev and tests.
// All Consume* and RecordLoginFailure calls run under the write lock.
type AccountRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string // email -> accountID
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[a.Email]; exists {
		return domain.Account{}, domain.ErrEmailAlreadyExists()
	}
	if a.ID == "" {
		return domain.Account{}, domain.ErrInternal(nil)
	}
	if _, exists := r.byID[a.ID]; exists {
		return domain.Account{}, domain.ErrInternal(nil)
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	r.byID[a.ID] = a
	r.byEmail[a.Email] = a.ID
	return a, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}
	return r.byID[id], nil
}

func (r *AccountRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfilePatch, now time.Time) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound()
	}

	if p.Email != nil && *p.Email != a.Email {
		if _, taken := r.byEmail[*p.Email]; taken {
			return domain.Account{}, domain.ErrEmailAlreadyExists()
		}
		delete(r.byEmail, a.Email)
		a.Email = *p.Email
		r.byEmail[a.Email] = a.ID
	}
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		a.PhoneNumber = *p.PhoneNumber
	}
	if p.Address != nil {
		a.Address = optional(*p.Address)
	}
	if p.AvatarURL != nil {
		a.AvatarURL = optional(*p.AvatarURL)
	}
	a.UpdatedAt = now

	r.byID[id] = a
	return a, nil
}

func (r *AccountRepo) ConsumeVerificationCode(ctx context.Context, code int, now time.Time) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if a.IsVerified || a.VerificationCode == nil || *a.VerificationCode != code {
			continue
		}
		if a.VerificationCodeExpire != nil && !a.VerificationCodeExpire.After(now) {
			continue
		}
		a.IsVerified = true
		a.VerificationCode = nil
		a.VerificationCodeExpire = nil
		a.UpdatedAt = now
		r.byID[id] = a
		return a, nil
	}
	return domain.Account{}, domain.ErrAccountNotFound()
}

func (r *AccountRepo) SetVerificationToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	return r.mutate(id, func(a *domain.Account) {
		a.VerificationToken = strPtr(tokenHash)
		a.VerificationTokenExpire = timePtr(expire)
	})
}

func (r *AccountRepo) ClearVerificationToken(ctx context.Context, id string) error {
	return r.mutate(id, func(a *domain.Account) {
		a.VerificationToken = nil
		a.VerificationTokenExpire = nil
	})
}

func (r *AccountRepo) ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if !liveSecret(a.VerificationToken, a.VerificationTokenExpire, tokenHash, now) {
			continue
		}
		a.IsVerified = true
		a.VerificationToken = nil
		a.VerificationTokenExpire = nil
		a.UpdatedAt = now
		r.byID[id] = a
		return a, nil
	}
	return domain.Account{}, domain.ErrAccountNotFound()
}

func (r *AccountRepo) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	return r.mutate(id, func(a *domain.Account) {
		a.ResetPasswordToken = strPtr(tokenHash)
		a.ResetPasswordExpire = timePtr(expire)
	})
}

func (r *AccountRepo) ClearResetToken(ctx context.Context, id string) error {
	return r.mutate(id, func(a *domain.Account) {
		a.ResetPasswordToken = nil
		a.ResetPasswordExpire = nil
	})
}

func (r *AccountRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if !liveSecret(a.ResetPasswordToken, a.ResetPasswordExpire, tokenHash, now) {
			continue
		}
		a.PasswordHash = newPasswordHash
		a.ResetPasswordToken = nil
		a.ResetPasswordExpire = nil
		a.UpdatedAt = now
		r.byID[id] = a
		return a, nil
	}
	return domain.Account{}, domain.ErrAccountNotFound()
}

func (r *AccountRepo) RecordLoginFailure(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (domain.LoginState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.LoginState{}, domain.ErrAccountNotFound()
	}

	next := policy.Fail(a.LoginState(), now)
	a.LoginAttempts = next.Attempts
	a.LockUntil = next.LockUntil
	a.UpdatedAt = now
	r.byID[id] = a
	return next, nil
}

func (r *AccountRepo) ResetLoginAttempts(ctx context.Context, id string, now time.Time) error {
	return r.mutate(id, func(a *domain.Account) {
		a.LoginAttempts = 0
		a.LockUntil = nil
		a.UpdatedAt = now
	})
}

func (r *AccountRepo) mutate(id string, fn func(a *domain.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound()
	}
	fn(&a)
	r.byID[id] = a
	return nil
}

func liveSecret(stored *string, expire *time.Time, hash string, now time.Time) bool {
	if stored == nil || *stored != hash {
		return false
	}
	return expire != nil && expire.After(now)
}

func strPtr(s string) *string        { return &s }

// optional maps "" to nil, matching NULLIF in the SQL store.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
func timePtr(t time.Time) *time.Time { return &t }
