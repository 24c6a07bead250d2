package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a deterministic cache key from the request fields that shape an
// answer. Fields are lowercased and their whitespace collapsed, so cosmetic differences
// in the task share one entry.
func Fingerprint(task, audience, tone, responseType string) string {
	h := sha256.New()
	for i, field := range []string{task, audience, tone, responseType} {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(normalize(field)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
