package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	id := GenerateUUID()
	assert.True(t, IsUUID(id))
	assert.NotEqual(t, id, GenerateUUID())
}

func TestGenerateShortID(t *testing.T) {
	assert.Len(t, GenerateShortID(), 8)
	assert.False(t, IsUUID("not-a-uuid"))
}
