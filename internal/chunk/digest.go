package chunk

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is a fixed 256-bit identity hash used for memoization keys.
type Digest [32]byte

// String returns the hex form of the digest.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool { return d == Digest{} }

// Combine builds H(first || rest...). Callers must pass rest in a
// deterministic order.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DigestString hashes a single string key.
func DigestString(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// ContentHash returns the hex encoded BLAKE3 hash of rendered artifact bytes.
// It is the content_hash fed into content addressed asset names.
func ContentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
