// Package fingerprint derives stable cache keys from classification
// requests. Two requests that differ only in incidental whitespace map to
// the same key; case is preserved because sentiment is case-sensitive.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode"
)

const keyPrefix = "sentiment:analysis:"

// Normalize collapses runs of whitespace to a single space and trims the
// ends. Case folding is deliberately not applied.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Key returns the deterministic cache key for a (text, language,
// modelVersion) tuple. Fields are length-prefixed before hashing so that
// tuple boundaries cannot collide ("ab"+"c" vs "a"+"bc").
func Key(text, language, modelVersion string) string {
	h := sha256.New()
	for _, field := range []string{Normalize(text), language, modelVersion} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
