// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package build

// LogLevel specifies the default log level of stdout loggers.
var LogLevel = "info"
