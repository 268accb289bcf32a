package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindConflict       ErrKind = "conflict"       // 400
	KindCredentials    ErrKind = "credentials"    // 400
	KindInvalidToken   ErrKind = "invalid_token"  // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindLocked         ErrKind = "locked"         // 423
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindDelivery       ErrKind = "delivery"       // 500
	KindUpload         ErrKind = "upload"         // 500
	KindInfrastructure ErrKind = "infrastructure" // 500
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

// ErrMissingField keeps the original client-facing wording for empty forms.
func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "Please enter all fields"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// Login and password-reset lookups by email surface a missing account as a
// bad request rather than a 404.
func ErrUserDoesNotExist() *Error {
	return New(KindValidation, "user_not_found", "User does not exist")
}

func ErrEmailNotFound() *Error {
	return New(KindValidation, "email_not_found", "Email not found")
}

// ----------------------
// Conflict (400)
// ----------------------

func ErrEmailAlreadyExists() *Error {
	return New(KindConflict, "email_already_exists", "User already exists")
}

// ----------------------
// Credentials (400)
// ----------------------

func ErrInvalidCredentials(attemptsLeft int) *Error {
	return WithMeta(
		New(KindCredentials, "invalid_credentials",
			fmt.Sprintf("Invalid credentials. %d attempt(s) left.", attemptsLeft)),
		map[string]string{"attempts_left": strconv.Itoa(attemptsLeft)},
	)
}

// ----------------------
// One-time secrets (400)
// ----------------------

func ErrInvalidVerificationCode() *Error {
	return New(KindInvalidToken, "invalid_or_expired", "Invalid or expired verification code")
}

func ErrInvalidVerificationToken() *Error {
	return New(KindInvalidToken, "invalid_or_expired", "Invalid or expired token")
}

func ErrInvalidResetToken() *Error {
	return New(KindInvalidToken, "invalid_or_expired", "Token is invalid or has expired")
}

// ----------------------
// Session errors (401)
// ----------------------

func ErrAuthHeaderMissing() *Error {
	return New(KindAuth, "auth_header_missing", "Authorization header missing")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "Token missing")
}

// ErrTokenInvalid covers expired, tampered and malformed sessions alike.
func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "Invalid token")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "forbidden")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrAccountNotFound() *Error {
	return New(KindNotFound, "account_not_found", "User not found")
}

// ----------------------
// Locked (423)
// ----------------------

func ErrAccountLocked(minutesLeft int) *Error {
	return WithMeta(
		New(KindLocked, "account_locked",
			fmt.Sprintf("Account is temporarily locked. Try again in %d minute(s).", minutesLeft)),
		map[string]string{"minutes_remaining": strconv.Itoa(minutesLeft)},
	)
}

func ErrTooManyAttempts(minutesLeft int) *Error {
	return WithMeta(
		New(KindLocked, "too_many_attempts",
			fmt.Sprintf("Too many failed login attempts. Try again in %d minute(s).", minutesLeft)),
		map[string]string{"minutes_remaining": strconv.Itoa(minutesLeft)},
	)
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Outbound collaborators (500)
// ----------------------

func ErrEmailDelivery(cause error) *Error {
	return Wrap(KindDelivery, "email_delivery_failed", "Email could not be sent. Please try again later.", cause)
}

func ErrAvatarUpload(cause error) *Error {
	return Wrap(KindUpload, "avatar_upload_failed", "Failed to upload avatar", cause)
}

// ----------------------
// Infrastructure / internal (500)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRabbitUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "rabbit_unavailable", "message broker unavailable", cause)
}

func ErrUnsupportedAvatarType(contentType string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":        "avatar",
		"reason":       "unsupported image type",
		"content_type": contentType,
	})
}

func ErrPasswordTooLong() *Error {
	return ErrInvalidField("password", "must be at most 72 bytes")
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
