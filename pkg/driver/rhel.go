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
	"path/filepath"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// dirYumRepos is overridden in tests.
var dirYumRepos = defaults.YumReposDir

// Packages DKMS needs to build the kernel module.
var rhelBuildDeps = []string{
	"tar",
	"bzip2",
	"make",
	"automake",
	"gcc",
	"gcc-c++",
	"pciutils",
	"elfutils-libelf-devel",
	"libglvnd-devel",
}

// rhel follows NVIDIA's network repository procedure for RHEL, CentOS,
// Rocky and AlmaLinux.
type rhel struct {
	base
}

func (r *rhel) repoName() string {
	return fmt.Sprintf("cuda-%s.repo", r.target.Distro)
}

func (r *rhel) repoFileURL() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.base.repoURL, r.target.Distro, r.target.Arch, r.repoName())
}

func (r *rhel) repoFile() string {
	return filepath.Join(dirYumRepos, r.repoName())
}

func (r *rhel) Install(ctx context.Context, rec *state.Record) error {
	ok, err := r.pm.IsInstalled(ctx, defaults.EPELReleasePackage)
	if err != nil {
		return installFailure("Error checking epel-release", err)
	}
	if !ok {
		url := fmt.Sprintf(defaults.EPELReleaseURL, r.target.Major)
		if err := r.pm.InstallFile(ctx, url); err != nil {
			return installFailure("Error installing epel-release", err)
		}
		rec.AddPackage(defaults.EPELReleasePackage)
	}

	if err := r.ensure(ctx, rec, rhelBuildDeps...); err != nil {
		return installFailure("Error installing driver dependencies", err)
	}

	if err := r.writeRepo(ctx, rec); err != nil {
		return installFailure("Error registering nvidia repository", err)
	}

	if err := r.ensure(ctx, rec, "kernel-devel-"+r.kernel, "kernel-headers-"+r.kernel); err != nil {
		return installFailure("Error installing devel kernel headers", err)
	}

	return r.installDriver(ctx, rec)
}

// writeRepo writes the vendor .repo file, leaving an identical file alone.
func (r *rhel) writeRepo(ctx context.Context, rec *state.Record) error {
	url := r.repoFileURL()
	data, err := r.fetcher.Read(ctx, url)
	if err != nil {
		return err
	}

	path := r.repoFile()
	written, err := host.WriteFileIfChanged(path, data, 0o644)
	if err != nil {
		return err
	}
	// An identical file that was already there is not ours to remove.
	if written {
		slog.Info("registered nvidia repository", "url", url, "file", path)
		rec.RepositoryFile = path
	}
	return nil
}

func (r *rhel) Remove(ctx context.Context, rec *state.Record) error {
	repo := removeStep{
		name: "repository",
		run: func(context.Context) error {
			if _, err := host.RemoveFileIfExists(rec.RepositoryFile); err != nil {
				return err
			}
			rec.RepositoryFile = ""
			return nil
		},
	}
	return r.remove(ctx, rec, repo, rec.RepositoryFile != "")
}
