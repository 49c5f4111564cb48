package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "+998901234567", Normalize("  +998 90 123 45 67 "))
	assert.Equal(t, "+998901234567", Normalize("+998901234567"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("+998901234567"))
	assert.False(t, Valid("998901234567"))
	assert.False(t, Valid("+99890123456"))
	assert.False(t, Valid("+9989012345678"))
	assert.False(t, Valid("+998 90 123 45 67"))
	assert.False(t, Valid(""))
}
