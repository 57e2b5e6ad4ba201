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

package defaults

// Vendor repository and driver defaults.
const (
	// RepositoryURL is the base of NVIDIA's CUDA network repositories.
	RepositoryURL = "https://developer.download.nvidia.com/compute/cuda/repos"

	// UbuntuDriverPackage is the default driver meta package on Ubuntu.
	UbuntuDriverPackage = "cuda-drivers"

	// CentOSDriverPackage is the default driver package on RHEL family hosts.
	CentOSDriverPackage = "nvidia-driver-latest-dkms"

	// CUDAKeyringPackage registers the vendor apt repository and its key.
	CUDAKeyringPackage = "cuda-keyring"

	// CUDAKeyringFile is the keyring package file published per distro/arch.
	CUDAKeyringFile = "cuda-keyring_1.1-1_all.deb"

	// KernelModule is the driver's primary kernel module.
	KernelModule = "nvidia"
)

// Filesystem locations.
const (
	// YumReposDir holds yum/dnf repository definitions.
	YumReposDir = "/etc/yum.repos.d"

	// ModulesLoadDir holds systemd-modules-load configuration.
	ModulesLoadDir = "/etc/modules-load.d"

	// StateFileName is the unit state database, relative to the charm dir.
	StateFileName = ".nvidia-driver-state.db"
)

// RHEL family extras.
const (
	// EPELReleasePackage provides DKMS on RHEL family hosts.
	EPELReleasePackage = "epel-release"

	// EPELReleaseURL is formatted with the RHEL major version.
	EPELReleaseURL = "https://dl.fedoraproject.org/pub/epel/epel-release-latest-%d.noarch.rpm"
)
