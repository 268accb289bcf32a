package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/account-service/internal/domain"
)

func TestJWTSigner_SignAndVerify(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", "account-service")
	tok, err := s.Sign("u1", true, time.Hour)
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}

	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if claims.AccountID != "u1" || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if d := time.Until(claims.Exp); d < 59*time.Minute || d > time.Hour {
		t.Fatalf("expected ~1h expiry, got %s", d)
	}
}

func TestJWTSigner_ExpiredAndTampered_AreIndistinguishable(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", "account-service")

	expired, _ := s.Sign("u1", false, -time.Second)
	_, errExpired := s.Verify(expired)

	other := NewJWTSigner("rotated", "account-service")
	forged, _ := other.Sign("u1", false, time.Hour)
	_, errForged := s.Verify(forged)

	for _, err := range []error{errExpired, errForged} {
		if !domain.Is(err, "token_invalid") {
			t.Fatalf("expected token_invalid, got %v", err)
		}
	}
	if errExpired.Error() != errForged.Error() {
		t.Fatalf("expected identical rejections, got %q vs %q", errExpired, errForged)
	}
}

func TestJWTSigner_ClockAdvancePastExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewJWTSigner("secret", "")
	s.now = func() time.Time { return now }

	tok, _ := s.Sign("u1", false, time.Hour)
	s.now = func() time.Time { return now.Add(time.Hour + time.Second) }

	if _, err := s.Verify(tok); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid after 1h, got %v", err)
	}
}

func TestJWTSigner_AlgNoneRejected(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{
		"id":      "u1",
		"isAdmin": true,
		"exp":     time.Now().Add(time.Minute).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected signing err: %v", err)
	}

	s := NewJWTSigner("secret", "")
	if _, err := s.Verify(unsigned); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestJWTSigner_IssuerMismatch(t *testing.T) {
	t.Parallel()

	a := NewJWTSigner("secret", "a")
	b := NewJWTSigner("secret", "b")
	tok, _ := a.Sign("u1", false, time.Minute)

	if _, err := b.Verify(tok); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}

func TestJWTSigner_Garbage(t *testing.T) {
	t.Parallel()

	s := NewJWTSigner("secret", "")
	if _, err := s.Verify("not.a.jwt"); !domain.Is(err, "token_invalid") {
		t.Fatalf("expected token_invalid, got %v", err)
	}
}
