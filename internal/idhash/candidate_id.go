package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeCandidateID computes a deterministic candidate_id using SHA256.
// Formula: SHA256(chain_id|pair_address|mint|scanned_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeCandidateID(
	chainID string,
	pairAddress string,
	mint string,
	scannedAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		chainID,
		pairAddress,
		mint,
		scannedAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
