package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/domain"
)

// JWTSigner issues HS256 session tokens. The secret is read once at startup;
// changing it invalidates every outstanding session.
type JWTSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTSigner(secret string, issuer string) *JWTSigner {
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

type sessionClaims struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(accountID string, isAdmin bool, ttl time.Duration) (string, error) {
	now := s.now()
	claims := sessionClaims{
		ID:      accountID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// Verify does not tell expired from tampered; both are token_invalid.
func (s *JWTSigner) Verify(token string) (account.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return account.SessionClaims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return account.SessionClaims{}, domain.ErrTokenInvalid()
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return account.SessionClaims{}, domain.ErrTokenInvalid()
	}

	return account.SessionClaims{
		AccountID: claims.ID,
		IsAdmin:   claims.IsAdmin,
		Exp:       claims.ExpiresAt.Time,
	}, nil
}
