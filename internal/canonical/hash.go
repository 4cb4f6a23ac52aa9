package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest domains. The version suffix leaves room for algorithm
// migration without ambiguity between old and new digests.
const (
	DomainBlock     = "evolve/block/v1"
	DomainSelection = "evolve/selection/v1"
)

// DigestLen is the length of a truncated hex digest as it appears in
// marker lines.
const DigestLen = 12

// HashWithDomain computes SHA256(domain + 0x00 + data). The null byte
// separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest canonically marshals a payload and returns the truncated
// domain-separated digest used in marker lines.
func Digest(domain string, payload any) (string, error) {
	data, err := Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("digest payload: %w", err)
	}
	return HashWithDomain(domain, data)[:DigestLen], nil
}
