// Package password stores and checks account passwords as salted bcrypt digests.
package password

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into digests and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) bool
}

// Bcrypt implements Hasher. Each digest embeds its own random salt and cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a hasher using bcrypt.DefaultCost.
func NewBcrypt() *Bcrypt {
	return &Bcrypt{cost: bcrypt.DefaultCost}
}

// NewBcryptWithCost is meant for tests that need fast hashing.
func NewBcryptWithCost(cost int) *Bcrypt {
	return &Bcrypt{cost: cost}
}

// Hash accepts any plaintext, including empty and longer than bcrypt's 72 bytes.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prehash(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (b *Bcrypt) Verify(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(plaintext)) == nil
}

// prehash maps any plaintext to 44 bytes without NULs so bcrypt sees all of it.
func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
