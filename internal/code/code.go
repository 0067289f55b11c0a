package code

import (
	"crypto/rand"
	"math/big"
)

const (
	charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is used when Generate is called with length <= 0.
	DefaultLength = 6
)

var maxIdx = big.NewInt(int64(len(charset)))

// Generate returns a random Base62 string. Each character is drawn
// independently; uniqueness is left to the store.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}
