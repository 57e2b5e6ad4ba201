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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func withReleaseFile(t *testing.T, content string) {
	t.Helper()
	origPrimary, origFallback := filePathReleasePrimary, filePathReleaseFallback
	t.Cleanup(func() {
		filePathReleasePrimary, filePathReleaseFallback = origPrimary, origFallback
	})
	filePathReleasePrimary = writeTemp(t, "os-release", content)
	filePathReleaseFallback = filepath.Join(t.TempDir(), "missing")
}

func TestReadRelease(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		wantID   string
		wantLike []string
		wantVer  string
		wantName string
	}{
		{
			name: "ubuntu",
			content: `NAME="Ubuntu"
VERSION_ID="22.04"
ID=ubuntu
ID_LIKE=debian
VERSION_CODENAME=jammy
PRETTY_NAME="Ubuntu 22.04.4 LTS"
`,
			wantID:   "ubuntu",
			wantLike: []string{"debian"},
			wantVer:  "22.04",
			wantName: "Ubuntu 22.04",
		},
		{
			name: "rocky via id like",
			content: `ID="rocky"
ID_LIKE="rhel centos fedora"
VERSION_ID="9.3"
`,
			wantID:   "rocky",
			wantLike: []string{"rhel", "centos", "fedora"},
			wantVer:  "9.3",
			wantName: "Rocky 9.3",
		},
		{
			name: "centos 7",
			content: `# comment
ID="centos"
VERSION_ID="7"
`,
			wantID:   "centos",
			wantVer:  "7",
			wantName: "Centos 7",
		},
		{
			name:     "unknown distro",
			content:  "ID=arch\n",
			wantID:   "arch",
			wantName: "Arch",
		},
		{
			name:    "missing id",
			content: "NAME=Something\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withReleaseFile(t, tt.content)

			r, err := ReadRelease(t.Context())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, r.ID)
			assert.Equal(t, tt.wantVer, r.VersionID)
			if tt.wantLike != nil {
				assert.Equal(t, tt.wantLike, r.IDLike)
			}
			assert.Equal(t, tt.wantName, r.DisplayName())
		})
	}
}

func TestReadReleaseFallback(t *testing.T) {
	origPrimary, origFallback := filePathReleasePrimary, filePathReleaseFallback
	defer func() {
		filePathReleasePrimary, filePathReleaseFallback = origPrimary, origFallback
	}()

	filePathReleasePrimary = filepath.Join(t.TempDir(), "missing")
	filePathReleaseFallback = writeTemp(t, "os-release", "ID=ubuntu\nVERSION_ID=\"24.04\"\n")

	r, err := ReadRelease(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "24.04", r.VersionID)
	assert.True(t, r.Is("ubuntu"))
}

func TestReadReleaseCanceled(t *testing.T) {
	withReleaseFile(t, "ID=ubuntu\n")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := ReadRelease(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReleaseIs(t *testing.T) {
	r := &Release{ID: "almalinux", IDLike: []string{"rhel", "centos", "fedora"}}
	assert.True(t, r.Is("almalinux"))
	assert.True(t, r.Is("rhel"))
	assert.False(t, r.Is("ubuntu"))
}
