package internal

import "crypto/sha256"

// MaskID strips reversible detail from a token or subject id before it is
// written to any log line, keeping enough prefix for correlation.
func MaskID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 8 {
		return "****"
	}
	return id[:6] + "****"
}

// HashFingerprint reduces a client-derived device fingerprint to its SHA-256
// digest. Raw fingerprint material is never stored.
func HashFingerprint(v string) [32]byte {
	return sha256.Sum256([]byte(v))
}
