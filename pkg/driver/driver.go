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
	"slices"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/pkgmgr"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/version"
)

// Manager runs the vendor driver procedure for one host.
type Manager interface {
	// Target is the resolved repository coordinates.
	Target() Target

	// DriverPackage is the configured driver package.
	DriverPackage() string

	// Installed reports whether the driver package is installed.
	Installed(ctx context.Context) (bool, error)

	// Install registers the vendor repository, installs kernel headers and
	// the driver, and loads the kernel module. Packages it adds are
	// recorded in rec, also when a later step fails.
	Install(ctx context.Context, rec *state.Record) error

	// Remove reverses Install. Every step runs even when an earlier one
	// fails; failures are returned together.
	Remove(ctx context.Context, rec *state.Record) error

	// Version is the driver version, from the loaded module when possible.
	Version(ctx context.Context) (string, error)
}

// Config selects driver packages and the repository.
type Config struct {
	UbuntuPackage string
	RHELPackage   string
	RepositoryURL string
}

// Fetcher downloads repository artifacts.
type Fetcher interface {
	Read(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url, dir string) (string, error)
}

// Modules loads and unloads kernel modules.
type Modules interface {
	Load(ctx context.Context, name string) error
	Unload(ctx context.Context, mods ...string) error
	Forget(name string) error
	Version(name string) (string, error)
}

// Deps are the host interfaces a Manager drives.
type Deps struct {
	Runner  exec.Runner
	Fetcher Fetcher
	Modules Modules
}

// Kernel modules the driver stack loads, in unload order.
var driverModules = []string{"nvidia_drm", "nvidia_modeset", "nvidia_uvm", defaults.KernelModule}

// NewManager resolves info against the supported matrix and returns the
// matching Manager. Unsupported hosts yield an UNSUPPORTED_HOST error and
// nothing on the host is touched.
func NewManager(info *host.Info, cfg Config, deps Deps) (Manager, error) {
	t, err := Resolve(info)
	if err != nil {
		return nil, err
	}
	if deps.Runner == nil || deps.Fetcher == nil || deps.Modules == nil {
		return nil, errors.New(errors.ErrCodeInternal, "driver manager requires runner, fetcher and modules")
	}
	if cfg.RepositoryURL == "" {
		cfg.RepositoryURL = defaults.RepositoryURL
	}

	b := base{
		target:  t,
		kernel:  info.Kernel,
		repoURL: strings.TrimSuffix(cfg.RepositoryURL, "/"),
		fetcher: deps.Fetcher,
		modules: deps.Modules,
	}

	switch t.Family {
	case host.FamilyDebian:
		b.pkg = pkgOrDefault(cfg.UbuntuPackage, defaults.UbuntuDriverPackage)
		b.pm = pkgmgr.NewApt(deps.Runner)
		return &ubuntu{base: b}, nil
	case host.FamilyRHEL:
		b.pkg = pkgOrDefault(cfg.RHELPackage, defaults.CentOSDriverPackage)
		if t.Major < 8 {
			b.pm = pkgmgr.NewYum(deps.Runner)
		} else {
			b.pm = pkgmgr.NewDnf(deps.Runner)
		}
		return &rhel{base: b}, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupportedHost, "unsupported distribution family "+string(t.Family))
}

func pkgOrDefault(pkg, def string) string {
	if p := strings.TrimSpace(pkg); p != "" {
		return p
	}
	return def
}

// base holds what the Ubuntu and RHEL procedures share.
type base struct {
	target  Target
	pkg     string
	kernel  string
	repoURL string
	pm      pkgmgr.Manager
	fetcher Fetcher
	modules Modules
}

func (b *base) Target() Target        { return b.target }
func (b *base) DriverPackage() string { return b.pkg }

func (b *base) Installed(ctx context.Context) (bool, error) {
	return b.pm.IsInstalled(ctx, b.pkg)
}

func (b *base) Version(ctx context.Context) (string, error) {
	raw, err := b.modules.Version(defaults.KernelModule)
	if err != nil {
		if raw, err = b.pm.Version(ctx, b.pkg); err != nil {
			return "", err
		}
	}
	if v, perr := version.ParseVersion(raw); perr == nil {
		return v.Display(), nil
	}
	return raw, nil
}

// installFailure wraps err as an INSTALLATION_FAILURE with a status-sized message.
func installFailure(msg string, err error) error {
	return errors.Wrap(errors.ErrCodeInstallationFailure, msg, err)
}

// ensure installs the packages in pkgs that are missing, in one transaction,
// and records them as operator-installed.
func (b *base) ensure(ctx context.Context, rec *state.Record, pkgs ...string) error {
	var missing []string
	for _, p := range pkgs {
		ok, err := b.pm.IsInstalled(ctx, p)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	slog.Info("installing packages", "manager", b.pm.Name(), "packages", missing)
	if err := b.pm.Install(ctx, missing...); err != nil {
		return err
	}
	for _, p := range missing {
		rec.AddPackage(p)
	}
	return nil
}

// installDriver refreshes repository metadata and installs the driver
// package when it is missing, then loads the kernel module and fills rec.
func (b *base) installDriver(ctx context.Context, rec *state.Record) error {
	ok, err := b.pm.IsInstalled(ctx, b.pkg)
	if err != nil {
		return installFailure("Error checking nvidia driver package", err)
	}
	if !ok {
		if err := b.pm.Refresh(ctx); err != nil {
			return installFailure("Error refreshing package metadata", err)
		}
		if err := b.ensure(ctx, rec, b.pkg); err != nil {
			return installFailure("Error installing nvidia drivers", err)
		}
	}

	mctx, cancel := context.WithTimeout(ctx, defaults.ModuleTimeout)
	defer cancel()
	if err := b.modules.Load(mctx, defaults.KernelModule); err != nil {
		return installFailure("Error loading nvidia kernel module", err)
	}

	v, err := b.Version(ctx)
	if err != nil {
		return installFailure("Error reading nvidia driver version", err)
	}

	rec.Installed = true
	rec.DriverPackage = b.pkg
	rec.DriverVersion = v
	rec.Distro = b.target.Distro
	return nil
}

// removeStep is one named step of the removal sequence.
type removeStep struct {
	name string
	run  func(ctx context.Context) error
}

// owns reports whether rec says the operator installed pkg. Packages that
// were on the host before install are never removed.
func owns(rec *state.Record, pkg string) bool {
	return slices.Contains(rec.InstalledPackages, pkg)
}

// nothingRecorded reports whether rec is empty, as on a host where install
// never ran.
func nothingRecorded(rec *state.Record) bool {
	return !rec.Installed && len(rec.InstalledPackages) == 0 && rec.RepositoryFile == ""
}

// remove runs the shared removal sequence around the family specific
// repository step. ownsRepo reports whether the operator registered the
// repository, keep lists recorded packages the repository step owns.
func (b *base) remove(ctx context.Context, rec *state.Record, repo removeStep, ownsRepo bool, keep ...string) error {
	if nothingRecorded(rec) {
		slog.Info("nothing to remove", "package", b.pkg)
		return nil
	}

	ownsDriver := owns(rec, b.pkg)
	if ownsDriver {
		// Unloading fails while the GPU is in use; the packages still go.
		mctx, cancel := context.WithTimeout(ctx, defaults.ModuleTimeout)
		if err := b.modules.Unload(mctx, driverModules...); err != nil {
			slog.Warn("kernel modules not unloaded", "error", err)
		}
		cancel()
	} else {
		slog.Info("driver package was not installed by the operator, keeping it", "package", b.pkg)
	}

	skip := sets.New(keep...)
	skip.Insert(b.pkg)

	var steps []removeStep
	if ownsDriver {
		steps = append(steps,
			removeStep{name: "module configuration", run: func(context.Context) error {
				return b.modules.Forget(defaults.KernelModule)
			}},
			removeStep{name: "driver package", run: func(ctx context.Context) error {
				return b.removeIfInstalled(ctx, rec, b.pkg)
			}},
		)
	}
	if ownsRepo {
		steps = append(steps, repo, removeStep{name: "package cache", run: b.pm.Refresh})
	}
	steps = append(steps, removeStep{name: "dependencies", run: func(ctx context.Context) error {
		var errs []error
		// Reverse install order.
		for i := len(rec.InstalledPackages) - 1; i >= 0; i-- {
			p := rec.InstalledPackages[i]
			if skip.Has(p) {
				continue
			}
			if err := b.removeIfInstalled(ctx, rec, p); err != nil {
				errs = append(errs, err)
			}
		}
		return utilerrors.NewAggregate(errs)
	}})

	var failed []string
	var errs []error
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			slog.Error("remove step failed", "step", s.name, "error", err)
			failed = append(failed, s.name)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	if len(errs) > 0 {
		rec.Installed = false
		return installFailure("Error removing nvidia drivers: "+strings.Join(failed, ", "), utilerrors.NewAggregate(errs))
	}
	return nil
}

// removeIfInstalled removes pkg when present and drops it from rec.
func (b *base) removeIfInstalled(ctx context.Context, rec *state.Record, pkg string) error {
	ok, err := b.pm.IsInstalled(ctx, pkg)
	if err != nil {
		return err
	}
	if ok {
		slog.Info("removing package", "manager", b.pm.Name(), "package", pkg)
		if err := b.pm.Remove(ctx, pkg); err != nil {
			return err
		}
	}
	rec.DropPackage(pkg)
	return nil
}
