package annc

import (
	"unsafe"

	"github.com/annc-dev/annc/sltype"
)

// AsFloat32s reinterprets a FLOAT-precision output buffer (as returned
// by Activate) as a slice of sltype.Float, without copying.
func AsFloat32s(b []byte) []sltype.Float {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 4
	return unsafe.Slice((*sltype.Float)(unsafe.Pointer(&b[0])), n)
}

// AsFloat64s reinterprets a DOUBLE-precision output buffer (as returned
// by Activate) as a slice of sltype.Double, without copying.
func AsFloat64s(b []byte) []sltype.Double {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 8
	return unsafe.Slice((*sltype.Double)(unsafe.Pointer(&b[0])), n)
}
