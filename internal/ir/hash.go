package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainRoute = "splitkeeper/route/v2"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RouteHash fingerprints a route structure given as canonical-marshalable
// data. Two routes with the same pieces, levels and trigger conditions hash
// the same regardless of map ordering or Unicode composition.
func RouteHash(structure IRObject) (string, error) {
	canonical, err := MarshalCanonical(structure)
	if err != nil {
		return "", fmt.Errorf("RouteHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRoute, canonical), nil
}
