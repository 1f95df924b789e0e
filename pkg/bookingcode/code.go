// Package bookingcode produces the human-facing booking references customers
// quote over the phone. Codes look like BK-7XKQ2M: six characters from an
// alphabet that drops visually confusable ones (I, O, 0, 1).
package bookingcode

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const (
	Prefix   = "BK-"
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	codeLength = 6
)

var pattern = regexp.MustCompile(`^BK-[A-Z2-9]{6}$`)

// Generator produces booking codes. Injected so service tests can control the
// codes that come out.
type Generator interface {
	NewCode() (string, error)
}

type randomGenerator struct{}

func NewGenerator() Generator {
	return randomGenerator{}
}

func (randomGenerator) NewCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = Alphabet[int(b)%len(Alphabet)]
	}

	return Prefix + string(out), nil
}

// Valid reports whether s has the shape of a booking code. It does not check
// that the code exists.
func Valid(s string) bool {
	if !pattern.MatchString(s) {
		return false
	}
	for _, r := range s[len(Prefix):] {
		switch r {
		case 'I', 'O', '0', '1':
			return false
		}
	}
	return true
}
