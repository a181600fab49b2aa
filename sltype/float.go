// Copyright (c) 2022, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sltype

// Float is identical to a float32, the storage unit for FLOAT precision.
type Float = float32

// Double is identical to a float64, the storage unit for DOUBLE precision.
type Double = float64
