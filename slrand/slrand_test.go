package slrand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextAdvancesAndVaries(t *testing.T) {
	var c Uint2
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		seen[Next(&c)] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestCounterIncrCarries(t *testing.T) {
	c := Uint2{X: 0xFFFFFFFF, Y: 0}
	CounterIncr(&c)
	assert.Equal(t, uint32(0), c.X)
	assert.Equal(t, uint32(1), c.Y)
}
