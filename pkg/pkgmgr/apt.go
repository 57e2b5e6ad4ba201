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

package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
)

// Apt manages packages on Debian-family hosts. The runner should carry
// DEBIAN_FRONTEND=noninteractive.
type Apt struct {
	Runner exec.Runner
}

// NewApt returns an Apt over r.
func NewApt(r exec.Runner) *Apt {
	return &Apt{Runner: r}
}

func (a *Apt) Name() string { return "apt-get" }

func (a *Apt) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	out, ok, err := query(ctx, a.Runner, "dpkg-query", "-W", "-f=${Status}", pkg)
	if err != nil || !ok {
		return false, err
	}
	// Removed packages keep "deinstall ok config-files".
	return strings.HasSuffix(out, "ok installed"), nil
}

func (a *Apt) Version(ctx context.Context, pkg string) (string, error) {
	out, ok, err := query(ctx, a.Runner, "dpkg-query", "-W", "-f=${Version}", pkg)
	if err != nil {
		return "", err
	}
	if !ok || out == "" {
		return "", fmt.Errorf("package %s is not installed", pkg)
	}
	return out, nil
}

func (a *Apt) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"install", "-y", "-q"}, pkgs...)
	return runWithLockRetry(ctx, a.Runner, "apt-get", args...)
}

func (a *Apt) InstallFile(ctx context.Context, path string) error {
	return runWithLockRetry(ctx, a.Runner, "dpkg", "-i", path)
}

func (a *Apt) Remove(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"purge", "-y", "-q"}, pkgs...)
	return runWithLockRetry(ctx, a.Runner, "apt-get", args...)
}

func (a *Apt) Refresh(ctx context.Context) error {
	return runWithLockRetry(ctx, a.Runner, "apt-get", "update", "-q")
}
