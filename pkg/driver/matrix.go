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
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/version"
)

// Target is a supported host resolved to NVIDIA repository coordinates.
type Target struct {
	Family host.Family `json:"family" yaml:"family"`

	// Distro is the repository directory, e.g. ubuntu2204 or rhel9.
	Distro string `json:"distro" yaml:"distro"`

	// Arch is the repository architecture: x86_64, sbsa or ppc64le.
	Arch string `json:"arch" yaml:"arch"`

	// Major is the RHEL major release. Zero on Ubuntu.
	Major int `json:"major,omitempty" yaml:"major,omitempty"`
}

// release is a supported distribution release with the repository
// architectures NVIDIA publishes for it.
type release struct {
	version version.Version
	arches  sets.Set[string]
}

// Ubuntu releases by VERSION_ID.
var ubuntuReleases = []release{
	{version.MustParseVersion("20.04"), sets.New("x86_64", "sbsa")},
	{version.MustParseVersion("22.04"), sets.New("x86_64", "sbsa")},
	{version.MustParseVersion("24.04"), sets.New("x86_64", "sbsa")},
}

// RHEL family releases by major version. Minor releases match their major.
var rhelReleases = []release{
	{version.MustParseVersion("7"), sets.New("x86_64", "ppc64le")},
	{version.MustParseVersion("8"), sets.New("x86_64", "sbsa", "ppc64le")},
	{version.MustParseVersion("9"), sets.New("x86_64", "sbsa")},
}

// lookup finds the release v belongs to. v must carry at least as many
// components as the table entry, so "22" never matches "22.04".
func lookup(releases []release, v version.Version) (release, bool) {
	for _, r := range releases {
		if v.Precision >= r.version.Precision && v.Equals(r.version) {
			return r, true
		}
	}
	return release{}, false
}

var rhelIDs = sets.New("rhel", "centos", "rocky", "almalinux")

// repoArch maps a machine architecture to NVIDIA's repository naming.
func repoArch(arch string) string {
	if arch == "aarch64" {
		return "sbsa"
	}
	return arch
}

// Resolve checks info against the supported OS matrix. It only reads info,
// so an unsupported host is rejected before anything is changed.
func Resolve(info *host.Info) (Target, error) {
	if info == nil || info.Release == nil {
		return Target{}, errors.New(errors.ErrCodeUnsupportedHost, "Unable to identify host operating system")
	}
	r := info.Release
	arch := repoArch(info.Arch)

	unsupported := func(reason string) error {
		return errors.NewWithContext(errors.ErrCodeUnsupportedHost,
			fmt.Sprintf("Unsupported host %s (%s): %s", r.DisplayName(), info.Arch, reason),
			map[string]any{"id": r.ID, "versionId": r.VersionID, "arch": info.Arch})
	}

	v, err := version.ParseVersion(r.VersionID)
	if err != nil {
		return Target{}, unsupported("unrecognized version")
	}

	switch {
	case r.ID == "ubuntu":
		rel, ok := lookup(ubuntuReleases, v)
		if !ok {
			return Target{}, unsupported("release not supported")
		}
		if !rel.arches.Has(arch) {
			return Target{}, unsupported("architecture not supported")
		}
		return Target{
			Family: host.FamilyDebian,
			Distro: "ubuntu" + strings.ReplaceAll(rel.version.Display(), ".", ""),
			Arch:   arch,
		}, nil

	case rhelIDs.Has(r.ID) || r.Is("rhel") || r.Is("centos"):
		rel, ok := lookup(rhelReleases, v)
		if !ok {
			return Target{}, unsupported("release not supported")
		}
		if !rel.arches.Has(arch) {
			return Target{}, unsupported("architecture not supported")
		}
		return Target{
			Family: host.FamilyRHEL,
			Distro: fmt.Sprintf("rhel%d", rel.version.Major),
			Arch:   arch,
			Major:  rel.version.Major,
		}, nil
	}

	return Target{}, unsupported("distribution not supported")
}

// Supported lists the supported releases, for the probe command.
func Supported() []string {
	out := make([]string, 0, len(ubuntuReleases)+len(rhelReleases))
	for _, r := range ubuntuReleases {
		out = append(out, fmt.Sprintf("ubuntu %s (%s)", r.version.Display(), strings.Join(sets.List(r.arches), ", ")))
	}
	for _, r := range rhelReleases {
		out = append(out, fmt.Sprintf("rhel %s (%s)", r.version.Display(), strings.Join(sets.List(r.arches), ", ")))
	}
	return out
}
