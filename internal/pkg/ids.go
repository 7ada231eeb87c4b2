package pkg

import "github.com/google/uuid"

// GenerateMatchID - generates a unique identifier for a relay match.
func GenerateMatchID() string {
	return uuid.NewString()
}
