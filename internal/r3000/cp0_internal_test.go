package r3000

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPushPushInvariant(t *testing.T) {
	c := newCP0()
	c.Status = 0x3F
	s0 := c.Status

	c.pushStatusStack()
	c.pushStatusStack()

	want := ((s0 << 4) & 0x3F) | (s0 &^ 0x3F)
	assert.Equal(t, want, c.Status)
}

func TestPushPopRoundTrip(t *testing.T) {
	c := newCP0()
	c.Status = 0b101010
	before := c.Status
	c.pushStatusStack()
	c.popStatusStack()
	assert.Equal(t, before, c.Status)
}
