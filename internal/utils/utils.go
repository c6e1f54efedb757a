package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

const idAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// GenerateID returns a short, human-typeable room code.
func GenerateID(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return uuid.NewString()[:n]
		}
		b[i] = idAlphabet[idx.Int64()]
	}
	return string(b)
}

// NewPlayerID is used for clients that do not bring a stable id of their own.
func NewPlayerID() string {
	return uuid.NewString()
}
