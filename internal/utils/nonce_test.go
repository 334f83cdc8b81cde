package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNonce_Unique(t *testing.T) {
	a, b := GenerateNonce(), GenerateNonce()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestFallbackClientID_Prefix(t *testing.T) {
	id := FallbackClientID()
	assert.True(t, strings.HasPrefix(id, "anon-"), id)
	assert.Greater(t, len(id), len("anon-"))
}
