package annc

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsFloat32s(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(-2.5))
	got := AsFloat32s(buf)
	assert.InDelta(t, 1.5, got[0], 1e-6)
	assert.InDelta(t, -2.5, got[1], 1e-6)
}

func TestAsFloat32sEmpty(t *testing.T) {
	assert.Nil(t, AsFloat32s(nil))
}
