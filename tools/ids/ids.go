package ids

import (
	"strings"

	"github.com/google/uuid"
)

// Generate returns a new opaque identifier for entities and connections.
func Generate() string {
	return uuid.NewString()
}

// GenerateShort returns a compact variant used for connection IDs in logs.
func GenerateShort() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
