package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_Deterministic(t *testing.T) {
	random := bytes.NewReader([]byte{0, 255, 1, 252, 25, 26, 35, 36, 0, 0, 0, 0})

	code, err := generateCode(2025, random)
	require.NoError(t, err)
	assert.Equal(t, "SPA-2025-ABZ09A", code)
}

func TestGenerateCode_ShortRead(t *testing.T) {
	_, err := generateCode(2025, bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)
}

func TestGenerateCode_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode(2026)
		require.NoError(t, err)
		assert.True(t, ValidCode(code), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("SPA-2025-A1B2C3"))
	assert.False(t, ValidCode("SPA-2025-a1b2c3"))
	assert.False(t, ValidCode("SPA-25-A1B2C3"))
	assert.False(t, ValidCode("SPA-2025-A1B2C"))
}
