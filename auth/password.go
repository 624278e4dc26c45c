package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/jlowell/doorman/internal/util"
)

// Argon2id parameters. Fixed for every digest; changing them would
// invalidate stored hashes, so treat them as part of the digest format.
const (
	passwordSaltLen     = 16
	passwordTime        = 1
	passwordMemoryKiB   = 64 * 1024
	passwordParallelism = 4
	passwordKeyLen      = 32
)

// HashPassword derives an Argon2id digest from the password and a fresh
// random salt, returned as "salt$hash" with both parts raw-std base64.
// The input is NFKD-normalized first so the same password typed on
// different platforms produces the same digest.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	salt, err := util.RandomBytes(passwordSaltLen)
	if err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	hash := argon2.IDKey([]byte(util.Normalize(password)), salt,
		passwordTime, passwordMemoryKiB, passwordParallelism, passwordKeyLen)
	return base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(hash), nil
}

// VerifyPassword reports whether password matches the encoded digest.
// Comparison is constant-time; a malformed digest fails closed.
func VerifyPassword(password, encoded string) bool {
	saltStr, hashStr, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(saltStr)
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(hashStr)
	if err != nil || len(expected) != passwordKeyLen {
		return false
	}
	hash := argon2.IDKey([]byte(util.Normalize(password)), salt,
		passwordTime, passwordMemoryKiB, passwordParallelism, passwordKeyLen)
	defer util.WipeBytes(hash)
	return subtle.ConstantTimeCompare(hash, expected) == 1
}
