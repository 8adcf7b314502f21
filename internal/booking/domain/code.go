package domain

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

var codePattern = regexp.MustCompile(`^SPA-\d{4}-[A-Z0-9]{6}$`)

// GenerateCode returns a customer-facing code SPA-<year>-<6 chars>.
func GenerateCode(year int) (string, error) {
	return generateCode(year, rand.Reader)
}

func generateCode(year int, r io.Reader) (string, error) {
	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)
	// Bytes >= 252 are discarded so every character is equally likely.
	for len(out) < codeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= 252 || len(out) == codeLength {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
		}
	}
	return fmt.Sprintf("SPA-%04d-%s", year, out), nil
}

// ValidCode reports whether s looks like a booking code.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}
