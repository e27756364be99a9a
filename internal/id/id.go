package id

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID creates a unique identifier for a persisted entity.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateToken creates an opaque 64-character hex token for auth sessions.
// Both halves come from random (v4) UUIDs.
func GenerateToken() string {
	a, b := uuid.New(), uuid.New()
	return strings.ReplaceAll(a.String()+b.String(), "-", "")
}
