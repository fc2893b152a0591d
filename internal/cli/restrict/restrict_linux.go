// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux && !android

package restrict

import (
	"context"

	"github.com/landlock-lsm/go-landlock/landlock"
	"go.astrophena.name/dingtalk/internal/cli"
)

func readOnly(ctx context.Context, dirs ...string) {
	if err := landlock.V3.BestEffort().RestrictPaths(landlock.RODirs(dirs...)); err != nil {
		cli.GetEnv(ctx).Logf("Sandboxing failed: %v", err)
	}
}
