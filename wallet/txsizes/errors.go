// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsizes

import "errors"

// ErrScoreOverflow is returned when the storage deposit of an output does
// not fit in 64 bits.
var ErrScoreOverflow = errors.New("storage deposit overflows u64")
