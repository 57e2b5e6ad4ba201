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
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/fetch"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
)

// fakeHost simulates the package database behind apt, dpkg, yum, dnf and rpm.
type fakeHost struct {
	pkgs      sets.Set[string]
	versions  map[string]string
	fail      map[string]string
	mutations []string
}

func newFakeHost(preinstalled ...string) *fakeHost {
	return &fakeHost{
		pkgs:     sets.New(preinstalled...),
		versions: map[string]string{},
		fail:     map[string]string{},
	}
}

func (h *fakeHost) version(pkg string) string {
	if v, ok := h.versions[pkg]; ok {
		return v
	}
	return "550.54.15-1"
}

func (h *fakeHost) handle(c exec.Call) ([]byte, error) {
	switch c.Name {
	case "dpkg-query":
		pkg := c.Args[len(c.Args)-1]
		if !h.pkgs.Has(pkg) {
			return nil, exec.Exit(c, 1, "dpkg-query: no packages found matching "+pkg)
		}
		if c.Args[1] == "-f=${Version}" {
			return []byte(h.version(pkg)), nil
		}
		return []byte("install ok installed"), nil
	case "rpm":
		pkg := c.Args[len(c.Args)-1]
		if !h.pkgs.Has(pkg) {
			return nil, exec.Exit(c, 1, "package "+pkg+" is not installed")
		}
		if len(c.Args) == 4 {
			return []byte(h.version(pkg)), nil
		}
		return []byte(pkg), nil
	}

	m := c.String()
	if c.Name == "dpkg" && len(c.Args) == 2 {
		m = "dpkg -i " + filepath.Base(c.Args[1])
	}
	h.mutations = append(h.mutations, m)
	if out, ok := h.fail[m]; ok {
		return nil, exec.Exit(c, 100, out)
	}

	switch c.Name {
	case "apt-get", "yum", "dnf":
		var names []string
		for _, a := range c.Args[1:] {
			if !strings.HasPrefix(a, "-") {
				names = append(names, a)
			}
		}
		switch c.Args[0] {
		case "install":
			for _, n := range names {
				if strings.HasPrefix(n, "https://") {
					n = defaults.EPELReleasePackage
				}
				h.pkgs.Insert(n)
			}
		case "purge", "remove":
			h.pkgs.Delete(names...)
		}
	case "dpkg":
		h.pkgs.Insert(defaults.CUDAKeyringPackage)
	}
	return nil, nil
}

type fakeModules struct {
	loaded    bool
	persisted bool
	version   string
	loadErr   error
	unloadErr error
	unloaded  []string
}

func (m *fakeModules) Load(_ context.Context, _ string) error {
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded, m.persisted = true, true
	return nil
}

func (m *fakeModules) Unload(_ context.Context, mods ...string) error {
	if m.unloadErr != nil {
		return m.unloadErr
	}
	if m.loaded {
		m.unloaded = mods
	}
	m.loaded = false
	return nil
}

func (m *fakeModules) Forget(_ string) error {
	m.persisted = false
	return nil
}

func (m *fakeModules) Version(name string) (string, error) {
	if !m.loaded || m.version == "" {
		return "", errors.New("module " + name + " not loaded")
	}
	return m.version, nil
}

const keyringContent = "!<arch>\ndebian-binary\n"

func repoContent(path string) string {
	return "[cuda]\nname=cuda\nbaseurl=https://example.invalid" + filepath.Dir(path) + "\nenabled=1\n"
}

type harness struct {
	host     *fakeHost
	runner   *exec.FakeRunner
	mods     *fakeModules
	srv      *httptest.Server
	requests atomic.Int32
	repoDir  string
}

func newHarness(t *testing.T, preinstalled ...string) *harness {
	t.Helper()
	h := &harness{
		host: newFakeHost(preinstalled...),
		mods: &fakeModules{version: "550.54.15"},
	}
	h.runner = &exec.FakeRunner{Handle: h.host.handle}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.requests.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/missing"):
			http.NotFound(w, r)
		case strings.HasSuffix(r.URL.Path, "/"+defaults.CUDAKeyringFile):
			_, _ = w.Write([]byte(keyringContent))
		case strings.HasSuffix(r.URL.Path, ".repo"):
			_, _ = w.Write([]byte(repoContent(r.URL.Path)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.srv.Close)

	orig := dirYumRepos
	t.Cleanup(func() { dirYumRepos = orig })
	h.repoDir = t.TempDir()
	dirYumRepos = h.repoDir
	return h
}

func (h *harness) manager(t *testing.T, info *host.Info) Manager {
	t.Helper()
	return h.managerWith(t, info, Config{RepositoryURL: h.srv.URL})
}

func (h *harness) managerWith(t *testing.T, info *host.Info, cfg Config) Manager {
	t.Helper()
	m, err := NewManager(info, cfg, Deps{
		Runner:  h.runner,
		Fetcher: fetch.NewClient(),
		Modules: h.mods,
	})
	require.NoError(t, err)
	return m
}

// takeMutations returns and resets the recorded mutating commands.
func (h *harness) takeMutations() []string {
	m := h.host.mutations
	h.host.mutations = nil
	if m == nil {
		return []string{}
	}
	return m
}

func info(id, versionID, arch, kernel string, like ...string) *host.Info {
	return &host.Info{
		Release: &host.Release{ID: id, IDLike: like, VersionID: versionID},
		Arch:    arch,
		Kernel:  kernel,
	}
}
