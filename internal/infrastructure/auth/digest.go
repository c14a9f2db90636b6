// Package auth provides the one-way digest primitives used for credential
// verification and access-key derivation.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sha2HexText returns the lowercase hex representation of the SHA2-256 hash
// of the given text, 64 characters long. Both stored password digests and
// access-plan lookup keys use this format.
func Sha2HexText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Sha2HexBytes returns the lowercase hex representation of the SHA2-256 hash
// of the given bytes. Document content hashes use this format.
func Sha2HexBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DeriveAccessKey derives the immutable lookup key of an access plan from its
// tenant identity and application name. The derivation is deterministic so a
// re-registered (tenant, application) pair maps to the same key.
func DeriveAccessKey(tenantID uint, application string) string {
	return Sha2HexText(fmt.Sprintf("%d|%s", tenantID, application))
}

// VerifySecret compares the digest of the supplied secret against the stored
// digest. Plain string comparison is the documented contract; this is not a
// timing-hardened design.
func VerifySecret(secret, storedDigest string) bool {
	return Sha2HexText(secret) == storedDigest
}
