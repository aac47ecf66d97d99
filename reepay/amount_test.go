package reepay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnit(t *testing.T) {
	assert.Equal(t, int64(10050), ToMinorUnit(100.50, "DKK"), "two-decimal currency multiplies by 100")
	assert.Equal(t, int64(1999), ToMinorUnit(19.99, "EUR"))
	assert.Equal(t, int64(10), ToMinorUnit(0.096, "DKK"), "rounds, never truncates")

	// zero-decimal currency passes through unscaled
	assert.Equal(t, int64(500), ToMinorUnit(500, "ISK"))
	assert.Equal(t, int64(500), ToMinorUnit(500, "isk"))
}

func TestFromMinorUnit(t *testing.T) {
	assert.Equal(t, 100.50, FromMinorUnit(10050, "DKK"))
	assert.Equal(t, 500.0, FromMinorUnit(500, "ISK"))
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, int64(100), Multiplier("DKK"))
	assert.Equal(t, int64(100), Multiplier("SEK"))
	assert.Equal(t, int64(1), Multiplier("ISK"))
}
