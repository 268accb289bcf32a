package domain

import (
	"errors"
	"testing"
)

func TestError_ErrorString_NoCause(t *testing.T) {
	err := New(KindCredentials, "invalid_credentials", "invalid email or password")

	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty error string")
	}
}

func TestError_ErrorString_WithCause(t *testing.T) {
	root := errors.New("root cause")
	err := Wrap(KindInternal, "hash_failed", "hash failed", root)

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}
}

func TestError_Unwrap(t *testing.T) {
	root := errors.New("root")
	err := Wrap(KindInternal, "internal_error", "internal", root)

	if errors.Unwrap(err) != root {
		t.Fatalf("unwrap did not return cause")
	}
}

func TestWithMeta_AttachesMeta(t *testing.T) {
	err := ErrMissingField("email")

	if err.Meta == nil {
		t.Fatalf("expected meta to be set")
	}
	if err.Meta["field"] != "email" {
		t.Fatalf("unexpected meta value: %+v", err.Meta)
	}
	if err.Message != "Please enter all fields" {
		t.Fatalf("unexpected message: %q", err.Message)
	}
}

func TestIs_MatchesCode(t *testing.T) {
	err := ErrInvalidCredentials(2)

	if !Is(err, "invalid_credentials") {
		t.Fatalf("expected code match")
	}
	if Is(err, "something_else") {
		t.Fatalf("unexpected code match")
	}
}

func TestIs_NonDomainError(t *testing.T) {
	err := errors.New("plain error")

	if Is(err, "invalid_credentials") {
		t.Fatalf("should not match non-domain error")
	}
}

func TestInvalidCredentials_ReportsAttemptsLeft(t *testing.T) {
	err := ErrInvalidCredentials(2)
	if err.Kind != KindCredentials {
		t.Fatalf("unexpected kind: %s", err.Kind)
	}
	if err.Message != "Invalid credentials. 2 attempt(s) left." {
		t.Fatalf("unexpected message: %q", err.Message)
	}
	if err.Meta["attempts_left"] != "2" {
		t.Fatalf("unexpected meta: %+v", err.Meta)
	}
}

func TestLockedErrors_CarryMinutes(t *testing.T) {
	err := ErrAccountLocked(1)
	if err.Kind != KindLocked || err.Code != "account_locked" {
		t.Fatalf("unexpected error: %+v", err)
	}
	if err.Message != "Account is temporarily locked. Try again in 1 minute(s)." {
		t.Fatalf("unexpected message: %q", err.Message)
	}

	tm := ErrTooManyAttempts(1)
	if tm.Kind != KindLocked || tm.Meta["minutes_remaining"] != "1" {
		t.Fatalf("unexpected error: %+v", tm)
	}
}

func TestOneTimeSecretErrors_ShareCode(t *testing.T) {
	for _, err := range []*Error{
		ErrInvalidVerificationCode(),
		ErrInvalidVerificationToken(),
		ErrInvalidResetToken(),
	} {
		if err.Kind != KindInvalidToken || err.Code != "invalid_or_expired" {
			t.Fatalf("unexpected error: %+v", err)
		}
	}
}

func TestNotFoundErrors(t *testing.T) {
	if ErrAccountNotFound().Kind != KindNotFound {
		t.Fatalf("unexpected kind")
	}
	if ErrEmailNotFound().Message != "Email not found" {
		t.Fatalf("unexpected message")
	}
}

func TestConflictErrors(t *testing.T) {
	err := ErrEmailAlreadyExists()
	if err.Kind != KindConflict {
		t.Fatalf("unexpected kind")
	}
}

func TestRateLimitedError(t *testing.T) {
	err := ErrRateLimited("login")
	if err.Kind != KindRateLimited {
		t.Fatalf("unexpected kind")
	}
	if err.Meta["scope"] != "login" {
		t.Fatalf("unexpected meta")
	}
}

func TestOutboundErrors_WrapCause(t *testing.T) {
	root := errors.New("smtp down")
	err := ErrEmailDelivery(root)
	if err.Kind != KindDelivery || !errors.Is(err, root) {
		t.Fatalf("unexpected error: %+v", err)
	}

	up := ErrAvatarUpload(root)
	if up.Kind != KindUpload || !errors.Is(up, root) {
		t.Fatalf("unexpected error: %+v", up)
	}
}

func TestInternalErrors(t *testing.T) {
	root := errors.New("boom")
	err := ErrDBUnavailable(root)

	if err.Kind != KindInfrastructure {
		t.Fatalf("unexpected kind")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected wrapped cause")
	}
}
