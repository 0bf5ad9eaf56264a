package task

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// UIDAlphabet omits glyphs that are easy to confuse (0/o, 1/i/l).
const UIDAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// UIDLength is the length of generated task uids.
const UIDLength = 6

// maxUIDAttempts bounds collision retries during Insert.
const maxUIDAttempts = 16

// UIDGenerator returns a fresh candidate uid.
type UIDGenerator func() (string, error)

// RandomUID draws UIDLength characters from UIDAlphabet using crypto/rand.
func RandomUID() (string, error) {
	buf := make([]byte, UIDLength)
	limit := big.NewInt(int64(len(UIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate uid: %w", err)
		}
		buf[i] = UIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}
