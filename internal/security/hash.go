package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken derives the stored digest for an opaque bearer or refresh token.
// The pepper keeps a leaked table of digests from being brute-forced offline.
// Lookups compare digests, never raw tokens.
func HashToken(raw, pepper string) string {
	h := sha256.Sum256([]byte(raw + ":" + pepper))
	return hex.EncodeToString(h[:])
}
