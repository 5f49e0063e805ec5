package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproximateMatch(t *testing.T) {
	names := []string{"aspect of the end", "enchanted diamond", "fishing rod", "stick"}

	match, ok := ApproximateMatch("enchanted diamnd", names, DefaultMatchCutoff)
	assert.True(t, ok)
	assert.Equal(t, "enchanted diamond", match)

	match, ok = ApproximateMatch("fishin rod", names, DefaultMatchCutoff)
	assert.True(t, ok)
	assert.Equal(t, "fishing rod", match)

	_, ok = ApproximateMatch("completely unrelated", names, DefaultMatchCutoff)
	assert.False(t, ok)

	_, ok = ApproximateMatch("", names, DefaultMatchCutoff)
	assert.False(t, ok)

	_, ok = ApproximateMatch("stick", nil, DefaultMatchCutoff)
	assert.False(t, ok)
}

func TestApproximateMatch_OrderIndependent(t *testing.T) {
	a := []string{"stack", "stuck"}
	b := []string{"stuck", "stack"}

	m1, ok1 := ApproximateMatch("stick", a, DefaultMatchCutoff)
	m2, ok2 := ApproximateMatch("stick", b, DefaultMatchCutoff)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, m1, m2)
	assert.Equal(t, "stuck", m1)
}
