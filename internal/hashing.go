package internal

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// CacheKey hashes the given parts into a short stable key. XXH3 is not
// cryptographic; it is only used to keep cache keys compact and free of
// characters redis would need escaping for.
func CacheKey(parts ...[]byte) string {
	h := xxh3.New()
	for _, part := range parts {
		// Hash writes cannot fail.
		_, _ = h.Write(part)
	}
	sum := h.Sum128()
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(sum.Lo >> (8 * i))
		b[8+i] = byte(sum.Hi >> (8 * i))
	}
	return hex.EncodeToString(b[:])
}
