// Package token generates opaque secret tokens for magic links and sessions.
package token

import (
	"crypto/rand"
	"fmt"
)

const (
	// Length is the fixed length of every generated token.
	Length = 64

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Generate returns a 64-character alphanumeric token drawn from
// crypto/rand. Bytes outside the rejection threshold are discarded so
// every alphabet character is equally likely.
func Generate() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)

	// 248 is the largest multiple of len(alphabet) below 256.
	const max = byte(248)

	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}
