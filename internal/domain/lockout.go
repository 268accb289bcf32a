package domain

import "time"

const (
	DefaultMaxLoginAttempts = 3
	DefaultLockDuration     = time.Minute
)

// LockoutPolicy turns failed logins into a timed lock.
//
// States: Unlocked(attempts < MaxAttempts) and LockedOut(until). Expiry is
// evaluated lazily; a lock that has run out behaves as Unlocked and the next
// failure restarts the count at 1.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:  DefaultMaxLoginAttempts,
		LockDuration: DefaultLockDuration,
	}
}

// Normalize fills zero values with defaults.
func (p LockoutPolicy) Normalize() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxLoginAttempts
	}
	if p.LockDuration <= 0 {
		p.LockDuration = DefaultLockDuration
	}
	return p
}

// LoginState is the lockout-relevant slice of an Account.
type LoginState struct {
	Attempts  int
	LockUntil *time.Time
}

func (s LoginState) Locked(now time.Time) bool {
	return s.LockUntil != nil && s.LockUntil.After(now)
}

func (a Account) LoginState() LoginState {
	return LoginState{Attempts: a.LoginAttempts, LockUntil: a.LockUntil}
}

// Fail returns the state after one more failed attempt at now.
// An active lock is returned unchanged.
func (p LockoutPolicy) Fail(s LoginState, now time.Time) LoginState {
	p = p.Normalize()

	if s.Locked(now) {
		return s
	}

	next := LoginState{Attempts: s.Attempts + 1}
	if s.LockUntil != nil {
		// lock ran out: start over
		next.Attempts = 1
	}
	if next.Attempts >= p.MaxAttempts {
		until := now.Add(p.LockDuration)
		next.LockUntil = &until
	}
	return next
}

// Succeed returns the state after a successful login.
func (p LockoutPolicy) Succeed() LoginState {
	return LoginState{}
}

func (p LockoutPolicy) AttemptsLeft(s LoginState) int {
	p = p.Normalize()
	left := p.MaxAttempts - s.Attempts
	if left < 0 {
		return 0
	}
	return left
}

// MinutesRemaining is ceil((lockUntil - now) / 1m); 0 when not locked.
func MinutesRemaining(s LoginState, now time.Time) int {
	if !s.Locked(now) {
		return 0
	}
	d := s.LockUntil.Sub(now)
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}
