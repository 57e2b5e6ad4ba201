// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package host

import (
	"context"
	"fmt"
	"runtime"
)

var (
	filePathKernelRelease = "/proc/sys/kernel/osrelease"

	// goarch is overridden in tests.
	goarch = runtime.GOARCH
)

// KernelRelease returns the running kernel release, as `uname -r` prints it.
func KernelRelease(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lines, err := readLines(filePathKernelRelease)
	if err != nil {
		return "", fmt.Errorf("failed to read kernel release: %w", err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("kernel release file %s is empty", filePathKernelRelease)
	}
	return lines[0], nil
}

// Arch returns the machine architecture in `uname -m` form.
func Arch() string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "ppc64le":
		return "ppc64le"
	default:
		return goarch
	}
}
