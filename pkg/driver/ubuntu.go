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
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// ubuntu follows NVIDIA's network repository procedure for Ubuntu:
// kernel headers, the cuda-keyring package, apt-get update, the driver.
type ubuntu struct {
	base
}

func (u *ubuntu) keyringURL() string {
	return fmt.Sprintf("%s/%s/%s/%s", u.repoURL, u.target.Distro, u.target.Arch, defaults.CUDAKeyringFile)
}

func (u *ubuntu) Install(ctx context.Context, rec *state.Record) error {
	if err := u.ensure(ctx, rec, "linux-headers-"+u.kernel); err != nil {
		return installFailure("Error installing kernel headers", err)
	}

	ok, err := u.pm.IsInstalled(ctx, defaults.CUDAKeyringPackage)
	if err != nil {
		return installFailure("Error checking cuda-keyring", err)
	}
	if !ok {
		if err := u.installKeyring(ctx, rec); err != nil {
			return installFailure("Error registering nvidia repository", err)
		}
	}

	return u.installDriver(ctx, rec)
}

func (u *ubuntu) installKeyring(ctx context.Context, rec *state.Record) error {
	dir, err := os.MkdirTemp("", "cuda-keyring-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	url := u.keyringURL()
	slog.Info("registering nvidia repository", "url", url)

	path, err := u.fetcher.Download(ctx, url, dir)
	if err != nil {
		return err
	}
	if err := u.pm.InstallFile(ctx, path); err != nil {
		return err
	}
	rec.AddPackage(defaults.CUDAKeyringPackage)
	return nil
}

func (u *ubuntu) Remove(ctx context.Context, rec *state.Record) error {
	repo := removeStep{
		name: "repository",
		run: func(ctx context.Context) error {
			return u.removeIfInstalled(ctx, rec, defaults.CUDAKeyringPackage)
		},
	}
	return u.remove(ctx, rec, repo, owns(rec, defaults.CUDAKeyringPackage), defaults.CUDAKeyringPackage)
}
