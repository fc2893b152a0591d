// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package restrict allows programs to use [Landlock] LSM on supported systems
// for sandboxing. On unsupported systems it does nothing.
//
// [Landlock]: https://landlock.io
package restrict

import (
	"context"
	"testing"
)

// ReadOnlyUnlessTesting limits file system access of the whole program to
// reading the given directories, unless the program is running under
// 'go test'. Network access is not affected.
//
// If sandboxing fails, a log message is written and the program continues.
func ReadOnlyUnlessTesting(ctx context.Context, dirs ...string) {
	if !testing.Testing() {
		readOnly(ctx, dirs...)
	}
}
