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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	operrors "github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

const rhelKernel = "5.14.0-362.8.1.el9_3.x86_64"

func rockyHost() *host.Info {
	return info("rocky", "9.3", "x86_64", rhelKernel, "rhel", "centos", "fedora")
}

func TestRHELInstall(t *testing.T) {
	h := newHarness(t, "tar", "gcc")
	h.mods.version = ""
	m := h.manager(t, rockyHost())
	rec := &state.Record{}

	require.NoError(t, m.Install(t.Context(), rec))

	assert.Equal(t, []string{
		"dnf install -y https://dl.fedoraproject.org/pub/epel/epel-release-latest-9.noarch.rpm",
		"dnf install -y bzip2 make automake gcc-c++ pciutils elfutils-libelf-devel libglvnd-devel",
		"dnf install -y kernel-devel-" + rhelKernel + " kernel-headers-" + rhelKernel,
		"dnf clean expire-cache",
		"dnf install -y nvidia-driver-latest-dkms",
	}, h.takeMutations())

	repo := filepath.Join(h.repoDir, "cuda-rhel9.repo")
	b, err := os.ReadFile(repo)
	require.NoError(t, err)
	assert.Equal(t, repoContent("/rhel9/x86_64/cuda-rhel9.repo"), string(b))

	assert.True(t, rec.Installed)
	assert.Equal(t, "rhel9", rec.Distro)
	assert.Equal(t, repo, rec.RepositoryFile)
	assert.Equal(t, "550.54.15", rec.DriverVersion)
	assert.NotContains(t, rec.InstalledPackages, "tar")
	assert.Contains(t, rec.InstalledPackages, "epel-release")
	assert.True(t, h.mods.loaded)
}

func TestRHELInstallIsIdempotent(t *testing.T) {
	h := newHarness(t)
	m := h.manager(t, rockyHost())
	rec := &state.Record{}

	require.NoError(t, m.Install(t.Context(), rec))
	h.takeMutations()

	repo := filepath.Join(h.repoDir, "cuda-rhel9.repo")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(repo, old, old))
	pkgs := append([]string(nil), rec.InstalledPackages...)

	require.NoError(t, m.Install(t.Context(), rec))
	assert.Empty(t, h.takeMutations())
	assert.Equal(t, pkgs, rec.InstalledPackages)

	fi, err := os.Stat(repo)
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(old), "identical repo file must not be rewritten")

	entries, err := os.ReadDir(h.repoDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRHELInstallReplacesStaleRepoFile(t *testing.T) {
	h := newHarness(t)
	repo := filepath.Join(h.repoDir, "cuda-rhel9.repo")
	require.NoError(t, os.WriteFile(repo, []byte("[cuda]\nbaseurl=stale\n"), 0o644))

	m := h.manager(t, rockyHost())
	require.NoError(t, m.Install(t.Context(), &state.Record{}))

	b, err := os.ReadFile(repo)
	require.NoError(t, err)
	assert.Equal(t, repoContent("/rhel9/x86_64/cuda-rhel9.repo"), string(b))
}

func TestRHELRemove(t *testing.T) {
	h := newHarness(t, "tar", "gcc")
	m := h.manager(t, rockyHost())
	rec := &state.Record{}
	require.NoError(t, m.Install(t.Context(), rec))
	h.takeMutations()

	require.NoError(t, m.Remove(t.Context(), rec))
	assert.Equal(t, []string{
		"dnf remove -y nvidia-driver-latest-dkms",
		"dnf clean expire-cache",
		"dnf remove -y kernel-headers-" + rhelKernel,
		"dnf remove -y kernel-devel-" + rhelKernel,
		"dnf remove -y libglvnd-devel",
		"dnf remove -y elfutils-libelf-devel",
		"dnf remove -y pciutils",
		"dnf remove -y gcc-c++",
		"dnf remove -y automake",
		"dnf remove -y make",
		"dnf remove -y bzip2",
		"dnf remove -y epel-release",
	}, h.takeMutations())

	assert.ElementsMatch(t, []string{"tar", "gcc"}, h.host.pkgs.UnsortedList())
	assert.NoFileExists(t, filepath.Join(h.repoDir, "cuda-rhel9.repo"))
	assert.Empty(t, rec.RepositoryFile)
	assert.Empty(t, rec.InstalledPackages)
	assert.False(t, h.mods.loaded)
}

func TestRHELRemoveWithoutInstallIsNoop(t *testing.T) {
	h := newHarness(t)
	m := h.manager(t, rockyHost())

	require.NoError(t, m.Remove(t.Context(), &state.Record{}))
	assert.Empty(t, h.takeMutations())
}

func TestRHELInstallRemoveInstall(t *testing.T) {
	h := newHarness(t)
	m := h.manager(t, rockyHost())

	first := &state.Record{}
	require.NoError(t, m.Install(t.Context(), first))
	firstMutations := h.takeMutations()
	pkgs := h.host.pkgs.Clone()

	require.NoError(t, m.Remove(t.Context(), first))
	h.takeMutations()

	second := &state.Record{}
	require.NoError(t, m.Install(t.Context(), second))
	assert.Equal(t, firstMutations, h.takeMutations())
	assert.True(t, pkgs.Equal(h.host.pkgs))
	assert.Equal(t, first.Distro, second.Distro)
	assert.FileExists(t, filepath.Join(h.repoDir, "cuda-rhel9.repo"))
}

func TestCentOS7UsesYum(t *testing.T) {
	h := newHarness(t)
	m := h.manager(t, info("centos", "7", "x86_64", "3.10.0-1160.el7.x86_64", "rhel", "fedora"))

	require.NoError(t, m.Install(t.Context(), &state.Record{}))
	mutations := h.takeMutations()
	require.NotEmpty(t, mutations)
	assert.Equal(t, "yum install -y https://dl.fedoraproject.org/pub/epel/epel-release-latest-7.noarch.rpm", mutations[0])
	assert.Contains(t, mutations, "yum clean expire-cache")
	assert.Contains(t, mutations, "yum install -y nvidia-driver-latest-dkms")
	assert.FileExists(t, filepath.Join(h.repoDir, "cuda-rhel7.repo"))
}

func TestRHELRepoDownloadFailure(t *testing.T) {
	h := newHarness(t)
	m := h.managerWith(t, rockyHost(), Config{RepositoryURL: h.srv.URL + "/missing"})
	rec := &state.Record{}

	err := m.Install(t.Context(), rec)
	require.Error(t, err)
	assert.True(t, operrors.IsCode(err, operrors.ErrCodeInstallationFailure))
	assert.Equal(t, "Error registering nvidia repository", operrors.Summary(err))
	assert.Empty(t, rec.RepositoryFile)
	assert.NotContains(t, h.takeMutations(), "dnf install -y nvidia-driver-latest-dkms")
}

func TestRHELRemoveKeepsPreexistingRepoFile(t *testing.T) {
	h := newHarness(t, "epel-release", "nvidia-driver-latest-dkms")
	repo := filepath.Join(h.repoDir, "cuda-rhel9.repo")
	require.NoError(t, os.WriteFile(repo, []byte(repoContent("/rhel9/x86_64/cuda-rhel9.repo")), 0o644))

	m := h.manager(t, rockyHost())
	rec := &state.Record{}
	require.NoError(t, m.Install(t.Context(), rec))
	assert.Empty(t, rec.RepositoryFile)
	h.takeMutations()

	require.NoError(t, m.Remove(t.Context(), rec))
	assert.FileExists(t, repo)
	assert.True(t, h.host.pkgs.HasAll("epel-release", "nvidia-driver-latest-dkms"))
	for _, mu := range h.takeMutations() {
		assert.NotContains(t, mu, "nvidia-driver-latest-dkms")
		assert.NotContains(t, mu, "expire-cache")
	}
}
