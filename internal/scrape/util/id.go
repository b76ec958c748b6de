package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// HashID is the deterministic job_id fallback for postings whose platform
// exposes no native identifier. Identical title+URL always hash the same,
// so repeat runs keep stable IDs.
func HashID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
