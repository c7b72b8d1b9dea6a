package sign

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the lowercase hex SHA-256 digest of b. Identical
// bytes always yield the identical digest; it is computed once on the
// pristine source bytes and once on the rendered output bytes.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
