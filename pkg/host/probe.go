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
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
)

// Info describes the host the driver is installed on.
type Info struct {
	Release *Release `json:"release" yaml:"release"`
	Arch    string   `json:"arch" yaml:"arch"`
	Kernel  string   `json:"kernel" yaml:"kernel"`
	Modules []string `json:"-" yaml:"-"`
}

// HasModule reports whether name was loaded when the host was probed.
func (i *Info) HasModule(name string) bool {
	for _, m := range i.Modules {
		if m == name {
			return true
		}
	}
	return false
}

// Probe reads the os-release, kernel release and loaded modules in parallel.
// It never changes the host.
func Probe(ctx context.Context) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.ProbeTimeout)
	defer cancel()

	start := time.Now()
	info := &Info{Arch: Arch()}

	// Each goroutine owns one field, so no lock is needed.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := ReadRelease(gctx)
		if err != nil {
			return err
		}
		info.Release = r
		return nil
	})

	g.Go(func() error {
		k, err := KernelRelease(gctx)
		if err != nil {
			return err
		}
		info.Kernel = k
		return nil
	})

	g.Go(func() error {
		mods, err := LoadedModules(gctx)
		if err != nil {
			return err
		}
		info.Modules = mods
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("host probed",
		"id", info.Release.ID,
		"version", info.Release.VersionID,
		"arch", info.Arch,
		"kernel", info.Kernel,
		"modules", len(info.Modules),
		"duration", time.Since(start).String())
	return info, nil
}
