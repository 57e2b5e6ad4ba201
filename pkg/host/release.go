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
	"os"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	filePathReleasePrimary  = "/etc/os-release"
	filePathReleaseFallback = "/usr/lib/os-release"
)

// Family groups distributions that share a driver installation procedure.
type Family string

const (
	FamilyDebian Family = "debian"
	FamilyRHEL   Family = "rhel"
)

// Release is the subset of os-release the operator acts on.
//
//	ID=ubuntu
//	ID_LIKE=debian
//	VERSION_ID="22.04"
//	VERSION_CODENAME=jammy
//	PRETTY_NAME="Ubuntu 22.04.4 LTS"
type Release struct {
	ID              string   `json:"id" yaml:"id"`
	IDLike          []string `json:"idLike,omitempty" yaml:"idLike,omitempty"`
	VersionID       string   `json:"versionId" yaml:"versionId"`
	VersionCodename string   `json:"versionCodename,omitempty" yaml:"versionCodename,omitempty"`
	PrettyName      string   `json:"prettyName,omitempty" yaml:"prettyName,omitempty"`
}

// ReadRelease reads /etc/os-release, falling back to /usr/lib/os-release
// when the primary file does not exist.
func ReadRelease(ctx context.Context) (*Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filePathReleasePrimary
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filePathReleaseFallback
	}

	kv, err := readKeyValues(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read os release from %s: %w", path, err)
	}

	r := &Release{
		ID:              strings.ToLower(kv["ID"]),
		IDLike:          strings.Fields(strings.ToLower(kv["ID_LIKE"])),
		VersionID:       kv["VERSION_ID"],
		VersionCodename: kv["VERSION_CODENAME"],
		PrettyName:      kv["PRETTY_NAME"],
	}
	if r.ID == "" {
		return nil, fmt.Errorf("os release %s has no ID", path)
	}
	return r, nil
}

// Is reports whether the release ID, or any ID_LIKE entry, equals id.
func (r *Release) Is(id string) bool {
	return r.ID == id || slices.Contains(r.IDLike, id)
}

// DisplayName is a short human-readable name for status messages.
func (r *Release) DisplayName() string {
	name := cases.Title(language.English).String(r.ID)
	if r.VersionID == "" {
		return name
	}
	return name + " " + r.VersionID
}
