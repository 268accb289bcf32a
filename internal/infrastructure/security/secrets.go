package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math/big"
)

const (
	codeMin       = 10000
	codeMax       = 99999
	tokenByteSize = 20
)

// Secrets produces verification codes and opaque tokens from crypto/rand.
type Secrets struct {
	rand io.Reader
}

func NewSecrets() *Secrets {
	return &Secrets{rand: rand.Reader}
}

// VerificationCode returns a uniform integer in [10000, 99999].
func (s *Secrets) VerificationCode() (int, error) {
	n, err := rand.Int(s.rand, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return 0, err
	}
	return codeMin + int(n.Int64()), nil
}

// OpaqueToken returns a 40-char hex token and the hash to persist.
func (s *Secrets) OpaqueToken() (string, string, error) {
	b := make([]byte, tokenByteSize)
	if _, err := io.ReadFull(s.rand, b); err != nil {
		return "", "", err
	}
	raw := hex.EncodeToString(b)
	return raw, s.HashToken(raw), nil
}

func (s *Secrets) HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
