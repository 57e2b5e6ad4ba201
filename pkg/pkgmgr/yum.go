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

	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
)

// Yum manages packages on RHEL-family hosts through yum or dnf, querying
// the rpm database directly.
type Yum struct {
	Runner exec.Runner
	bin    string
}

// NewYum returns a Yum using the yum binary (RHEL/CentOS 7).
func NewYum(r exec.Runner) *Yum {
	return &Yum{Runner: r, bin: "yum"}
}

// NewDnf returns a Yum using the dnf binary (RHEL 8 and later).
func NewDnf(r exec.Runner) *Yum {
	return &Yum{Runner: r, bin: "dnf"}
}

func (y *Yum) Name() string { return y.bin }

func (y *Yum) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	_, ok, err := query(ctx, y.Runner, "rpm", "-q", pkg)
	return ok, err
}

func (y *Yum) Version(ctx context.Context, pkg string) (string, error) {
	out, ok, err := query(ctx, y.Runner, "rpm", "-q", "--queryformat", "%{VERSION}", pkg)
	if err != nil {
		return "", err
	}
	if !ok || out == "" {
		return "", fmt.Errorf("package %s is not installed", pkg)
	}
	return out, nil
}

func (y *Yum) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, pkgs...)
	return runWithLockRetry(ctx, y.Runner, y.bin, args...)
}

func (y *Yum) InstallFile(ctx context.Context, path string) error {
	return runWithLockRetry(ctx, y.Runner, y.bin, "install", "-y", path)
}

func (y *Yum) Remove(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"remove", "-y"}, pkgs...)
	return runWithLockRetry(ctx, y.Runner, y.bin, args...)
}

func (y *Yum) Refresh(ctx context.Context) error {
	return runWithLockRetry(ctx, y.Runner, y.bin, "clean", "expire-cache")
}
