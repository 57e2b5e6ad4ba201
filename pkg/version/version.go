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

// Package version parses the dotted numeric versions found on a host:
// os-release VERSION_ID values ("22.04", "8.9", "7") and NVIDIA driver
// versions ("570.124.06", "535.183.01-0ubuntu1").
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
)

// Version is a dotted version of one to three numeric components.
// Precision records how many components were present, and comparisons only
// look at the components both sides carry.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch int `json:"patch,omitempty" yaml:"patch,omitempty"`

	Precision int `json:"precision" yaml:"precision"`

	// Extras holds a packaging suffix such as "-0ubuntu1" or "+el9".
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`

	// Raw is the input as given, kept for display because components may be
	// zero padded ("570.124.06").
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// ParseVersion parses s. An optional "v" prefix and an optional Debian
// epoch ("1:") are dropped; anything from the first '-' or '+' on is kept
// in Extras.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, ErrEmptyVersion
	}

	main := strings.TrimPrefix(raw, "v")
	if _, rest, ok := strings.Cut(main, ":"); ok {
		main = rest
	}

	v := Version{Raw: raw}
	if i := strings.IndexAny(main, "-+"); i > 0 {
		v.Extras = main[i:]
		main = main[:i]
	}

	parts := strings.Split(main, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyComponents
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || p != strings.TrimSpace(p) || strings.HasPrefix(p, "+") {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, p)
		}
		nums[i] = n
	}

	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	v.Precision = len(parts)
	return v, nil
}

// MustParseVersion is ParseVersion for literals; it panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(fmt.Sprintf("MustParseVersion: %v", err))
	}
	return v
}

// String returns the canonical dotted form respecting Precision, without Extras.
func (v Version) String() string {
	comps := []int{v.Major, v.Minor, v.Patch}
	p := v.Precision
	if p < 1 || p > 3 {
		p = 3
	}
	out := make([]string, 0, p)
	for _, c := range comps[:p] {
		out = append(out, strconv.Itoa(c))
	}
	return strings.Join(out, ".")
}

// Compare returns -1, 0 or 1 comparing v with other over the components
// both carry. "22" therefore equals "22.04".
func (v Version) Compare(other Version) int {
	p := min(v.Precision, other.Precision)
	a := []int{v.Major, v.Minor, v.Patch}
	b := []int{other.Major, other.Minor, other.Patch}
	for i := 0; i < p; i++ {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	return 0
}

// Equals reports whether v and other match over their shared components.
func (v Version) Equals(other Version) bool {
	return v.Compare(other) == 0
}

// Display returns Raw without a "v" prefix, an epoch or Extras. Unlike
// String it keeps zero padding, so "1:570.124.06-0ubuntu1" gives "570.124.06".
func (v Version) Display() string {
	main := strings.TrimPrefix(strings.TrimSpace(v.Raw), "v")
	if _, rest, ok := strings.Cut(main, ":"); ok {
		main = rest
	}
	if main == "" {
		return v.String()
	}
	return strings.TrimSuffix(main, v.Extras)
}
