package lockmgr

import (
	"crypto/rand"
)

const (
	ownerIDSize = 32 // 256 bit
)

// generateOwnerID creates a new random owner ID.
func generateOwnerID() ([]byte, error) {
	id := make([]byte, ownerIDSize)
	if _, err := rand.Read(id); err != nil {
		return nil, err
	}
	return id, nil
}
