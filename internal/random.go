package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	// TokenSize is the number of random bytes behind every bearer token.
	TokenSize = 32

	sessionIDSize = 12
)

// TokenHash is the SHA-256 of the raw token bytes. Sessions are stored under
// it so the session table never holds usable bearer credentials.
type TokenHash [32]byte

func NewToken() (string, TokenHash, error) {
	var raw [TokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", TokenHash{}, err
	}

	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(raw[:]), sha256.Sum256(raw[:]), nil
}

// strictEncoding rejects non-zero trailing bits, so each token has exactly
// one accepted spelling.
var strictEncoding = base64.RawURLEncoding.Strict()

// HashToken decodes a presented token and returns its storage hash. Tokens of
// the wrong size or alphabet, or not in canonical encoding, are rejected
// without touching any store.
func HashToken(token string) (TokenHash, bool) {
	if len(token) != base64.RawURLEncoding.EncodedLen(TokenSize) {
		return TokenHash{}, false
	}

	raw, err := strictEncoding.DecodeString(token)
	if err != nil || len(raw) != TokenSize {
		return TokenHash{}, false
	}

	return sha256.Sum256(raw), true
}

func (h TokenHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// SessionID is the public, non-secret handle derived from the hash.
func (h TokenHash) SessionID() string {
	return base64.RawURLEncoding.EncodeToString(h[:sessionIDSize])
}

func ParseTokenHashHex(s string) (TokenHash, error) {
	var h TokenHash

	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(raw) != len(h) {
		return h, errors.New("invalid token hash size")
	}

	copy(h[:], raw)
	return h, nil
}

// NewSecretString returns n random bytes encoded base64url. Used for values
// that only need to be unpredictable, such as load test run ids.
func NewSecretString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid secret size")
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
