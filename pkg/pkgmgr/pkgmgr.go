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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
)

// Manager wraps a host package manager.
type Manager interface {
	// Name is the package manager binary, e.g. "apt-get" or "dnf".
	Name() string

	// IsInstalled reports whether pkg is installed. An unknown package is
	// not an error.
	IsInstalled(ctx context.Context, pkg string) (bool, error)

	// Version returns the installed version of pkg.
	Version(ctx context.Context, pkg string) (string, error)

	// Install installs pkgs from the configured repositories.
	Install(ctx context.Context, pkgs ...string) error

	// InstallFile installs a local package file.
	InstallFile(ctx context.Context, path string) error

	// Remove removes pkgs, including their configuration where the
	// package manager distinguishes.
	Remove(ctx context.Context, pkgs ...string) error

	// Refresh makes the next install see current repository metadata.
	Refresh(ctx context.Context) error
}

// lockBackoff is overridden in tests.
var lockBackoff = wait.Backoff{
	Duration: defaults.LockRetryInitial,
	Factor:   defaults.LockRetryFactor,
	Steps:    defaults.LockRetrySteps,
}

// Output fragments printed when another process holds the package database.
var lockMessages = []string{
	"Could not get lock",
	"Unable to acquire the dpkg frontend lock",
	"Unable to lock the administration directory",
	"Another app is currently holding the yum lock",
	"Waiting for process with pid",
	"rpmdb: lock",
}

// IsLockContention reports whether err is a package manager failure caused
// by a held lock.
func IsLockContention(err error) bool {
	var ce *exec.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	for _, m := range lockMessages {
		if strings.Contains(ce.Output, m) {
			return true
		}
	}
	return false
}

// runWithLockRetry runs a mutating command, retrying with exponential backoff
// while the package database is locked. Any other failure returns at once.
func runWithLockRetry(ctx context.Context, r exec.Runner, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.PackageTimeout)
	defer cancel()

	var lastErr error
	attempt := 0
	err := wait.ExponentialBackoffWithContext(ctx, lockBackoff, func(ctx context.Context) (bool, error) {
		attempt++
		_, err := r.Run(ctx, name, args...)
		if err == nil {
			return true, nil
		}
		if IsLockContention(err) {
			lastErr = err
			slog.Warn("package database locked, retrying",
				"command", name,
				"attempt", attempt)
			return false, nil
		}
		return false, err
	})
	if err != nil && wait.Interrupted(err) && lastErr != nil {
		return fmt.Errorf("package database still locked after %d attempts: %w", attempt, lastErr)
	}
	return err
}

// query runs a read-only command and maps exit code 1 to "not installed".
func query(ctx context.Context, r exec.Runner, name string, args ...string) (string, bool, error) {
	out, err := r.Run(ctx, name, args...)
	if err != nil {
		if exec.ExitCodeOf(err) == 1 {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(out)), true, nil
}
