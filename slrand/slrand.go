// Copyright (c) 2022, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slrand provides a small counter-based generator used to tag
// temporary build artifacts (emitted .c/.h and the built .so) with a
// unique-enough suffix per compile. It is not used for
// weight initialization: that happens inside the emitted native code via
// the RANDOM opcode, evaluated at module-load time, not at compile time
// in Go.
package slrand

// Uint2 is a two-word counter, incremented once per tag request.
type Uint2 struct {
	X, Y uint32
}

// CounterIncr advances the counter by one, carrying from X into Y.
func CounterIncr(c *Uint2) {
	c.X++
	if c.X == 0 {
		c.Y++
	}
}

// Next mixes the counter into a single uint32 tag and advances the
// counter. The mix is a fixed-point splitmix-style finalizer: not
// cryptographic, only intended to avoid collisions between temp files
// compiled in quick succession within one process.
func Next(c *Uint2) uint32 {
	CounterIncr(c)
	x := c.X ^ (c.Y * 0x9e3779b9)
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return x
}
