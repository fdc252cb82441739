package metadata

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ComputeInternalHash hashes data with blake2b-256, the digest backing
// ProofTag.HashBytes when System is ProofInternalHash. Grounded in the
// teacher's pkg/encryption, which reaches into the same x/crypto
// sub-repository for its key derivation.
func ComputeInternalHash(data []byte) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: blake2b init failed: %w", err)
	}
	if _, err := h.Write(data); err != nil {
		return nil, fmt.Errorf("metadata: blake2b write failed: %w", err)
	}
	return h.Sum(nil), nil
}

// NewInternalHashProofTag builds a ProofTag stamping data's blake2b-256
// digest under the INTERNAL_HASH proof system.
func NewInternalHashProofTag(data []byte) (ProofTag, error) {
	sum, err := ComputeInternalHash(data)
	if err != nil {
		return ProofTag{}, err
	}
	return ProofTag{System: ProofInternalHash, HashBytes: sum}, nil
}
