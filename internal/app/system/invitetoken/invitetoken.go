// Package invitetoken generates workspace join tokens.
//
// A token is a 12-character uppercase alphanumeric code valid for 24
// hours, meant to be shared out of band and typed by the joining user.
// Tokens are not single-use: anyone holding a valid code may join until
// it expires or is overwritten by a newer one.
package invitetoken

import (
	"crypto/rand"
	"time"
)

// Token length and lifetime.
const (
	Length = 12
	TTL    = 24 * time.Hour
)

// alphabet excludes lowercase to keep tokens easy to read aloud.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Token pairs a join code with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// limit is the largest multiple of len(alphabet) below 256. Bytes at or
// above it are rejected so every alphabet character is equally likely.
const limit = 256 - 256%len(alphabet)

// Generate produces a new token expiring TTL from now.
func Generate() (Token, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return Token{}, err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return Token{
		Value:     string(out),
		ExpiresAt: time.Now().UTC().Add(TTL),
	}, nil
}
