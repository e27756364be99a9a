package id_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neetprep/backend/internal/id"
)

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v := id.GenerateID()
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerateToken(t *testing.T) {
	tok := id.GenerateToken()
	assert.Len(t, tok, 64)
	assert.NotContains(t, tok, "-")
	assert.NotEqual(t, tok, id.GenerateToken())
}
