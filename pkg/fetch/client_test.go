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
package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMaxBytes(n int64) Option {
	return func(c *Client) { c.MaxBytes = n }
}

func TestClientRead(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/rhel9/x86_64/cuda-rhel9.repo":
			_, _ = w.Write([]byte("[cuda-rhel9-x86_64]\nname=cuda-rhel9-x86_64\n"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		path    string
		opts    []Option
		want    string
		wantErr string
	}{
		{
			name: "ok",
			path: "/rhel9/x86_64/cuda-rhel9.repo",
			want: "[cuda-rhel9-x86_64]\nname=cuda-rhel9-x86_64\n",
		},
		{
			name:    "not found",
			path:    "/rhel10/x86_64/cuda-rhel10.repo",
			wantErr: "404",
		},
		{
			name:    "too large",
			path:    "/big",
			opts:    []Option{withMaxBytes(16)},
			wantErr: "exceeds maximum size",
		},
		{
			name: "exactly at limit",
			path: "/big",
			opts: []Option{withMaxBytes(64)},
			want: strings.Repeat("x", 64),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.opts...)
			got, err := c.Read(t.Context(), srv.URL+tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, DefaultUserAgent, gotUA)
		})
	}
}

func TestClientReadEmptyURL(t *testing.T) {
	_, err := NewClient().Read(t.Context(), "")
	require.Error(t, err)
}

func TestClientReadCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Read(ctx, srv.URL)
	require.Error(t, err)
}

func TestClientUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("nvidia-driver-operator/v1.2.0"))
	_, err := c.Read(t.Context(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "nvidia-driver-operator/v1.2.0", gotUA)
	assert.Equal(t, DefaultMaxBytes, c.MaxBytes)
	assert.Equal(t, DefaultTimeout, c.HTTP.Timeout)
}

func TestClientDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("!<arch>\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := NewClient().Download(t.Context(), srv.URL+"/ubuntu2204/x86_64/cuda-keyring_1.1-1_all.deb", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cuda-keyring_1.1-1_all.deb"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "!<arch>\n", string(b))
}
