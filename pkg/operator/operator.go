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
package operator

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/charm"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/driver"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// Status messages.
const (
	MsgInstalling      = "Installing NVIDIA drivers..."
	MsgRemoving        = "Removing NVIDIA drivers..."
	MsgReady           = "Ready"
	MsgIdle            = "Idle"
	MsgModuleNotLoaded = "nvidia kernel module not loaded"
)

// Hooks is the subset of the Juju hook tools the operator uses.
type Hooks interface {
	ConfigSource
	StatusSet(ctx context.Context, s charm.Status) error
	ApplicationVersionSet(ctx context.Context, version string) error
	Log(ctx context.Context, level, msg string) error
}

// RecordStore persists the installation record.
type RecordStore interface {
	Load() (*state.Record, error)
	Save(r *state.Record) error
	Clear() error
}

// ManagerFactory builds the driver manager for a host.
type ManagerFactory func(info *host.Info, cfg driver.Config) (driver.Manager, error)

// Options wires an Operator.
type Options struct {
	Hooks   Hooks
	Store   RecordStore
	Probe   func(ctx context.Context) (*host.Info, error)
	Manager ManagerFactory

	// ModuleLoaded reports whether the driver module is loaded. Defaults
	// to host.IsModuleLoaded.
	ModuleLoaded func(ctx context.Context, name string) (bool, error)
}

// Operator installs the NVIDIA driver when the unit joins a machine and
// removes it when the unit goes away.
type Operator struct {
	hooks        Hooks
	store        RecordStore
	probe        func(ctx context.Context) (*host.Info, error)
	manager      ManagerFactory
	moduleLoaded func(ctx context.Context, name string) (bool, error)
}

// New returns an Operator wired with opts.
func New(opts Options) *Operator {
	o := &Operator{
		hooks:        opts.Hooks,
		store:        opts.Store,
		probe:        opts.Probe,
		manager:      opts.Manager,
		moduleLoaded: opts.ModuleLoaded,
	}
	if o.probe == nil {
		o.probe = host.Probe
	}
	if o.moduleLoaded == nil {
		o.moduleLoaded = host.IsModuleLoaded
	}
	return o
}

// Register observes the events the operator handles on d. The latest of
// install and remove wins over a deferred event of the other.
func (o *Operator) Register(d *charm.Dispatcher) {
	installs := []charm.Kind{charm.Install, charm.RelationCreated, charm.ConfigChanged}
	removes := []charm.Kind{charm.Remove, charm.RelationBroken}
	for _, k := range removes {
		d.Supersede(k, installs...)
	}
	for _, k := range installs[:2] {
		d.Supersede(k, removes...)
	}

	d.Observe(charm.Install, o.onInstall)
	d.Observe(charm.RelationCreated, o.onInstall)
	d.Observe(charm.Remove, o.onRemove)
	d.Observe(charm.RelationBroken, o.onRemove)
	d.Observe(charm.UpdateStatus, o.onUpdateStatus)
	d.Observe(charm.ConfigChanged, o.onConfigChanged)
}

func (o *Operator) setStatus(ctx context.Context, s charm.Status) {
	if err := o.hooks.StatusSet(ctx, s); err != nil {
		slog.Warn("status not set", "status", s.String(), "error", err)
	}
}

// report logs to both slog and the unit log.
func (o *Operator) report(ctx context.Context, level slog.Level, msg string, args ...any) {
	slog.Log(ctx, level, msg, args...)

	jl := charm.LogInfo
	switch {
	case level >= slog.LevelError:
		jl = charm.LogError
	case level >= slog.LevelWarn:
		jl = charm.LogWarning
	case level < slog.LevelInfo:
		jl = charm.LogDebug
	}
	if err := o.hooks.Log(ctx, jl, msg); err != nil {
		slog.Debug("juju-log failed", "error", err)
	}
}

// blocked sets blocked status from err.
func (o *Operator) blocked(ctx context.Context, e charm.Event, err error) {
	o.report(ctx, slog.LevelError, "hook failed: "+errors.Summary(err),
		"event", e.String(),
		"code", errors.CodeOf(err),
		"error", err)
	o.setStatus(ctx, charm.BlockedStatus(errors.Summary(err)))
}

// managerFor probes the host and builds its driver manager. It changes
// nothing on the host.
func (o *Operator) managerFor(ctx context.Context, cfg Config) (driver.Manager, error) {
	info, err := o.probe(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "Unable to identify host", err)
	}
	return o.manager(info, cfg.Driver())
}

func (o *Operator) onInstall(ctx context.Context, e charm.Event) error {
	o.report(ctx, slog.LevelInfo, MsgInstalling, "event", e.String())
	o.setStatus(ctx, charm.MaintenanceStatus(MsgInstalling))

	cfg, err := LoadConfig(ctx, o.hooks)
	if err != nil {
		o.blocked(ctx, e, err)
		return charm.Defer(err)
	}
	return o.install(ctx, e, cfg)
}

// install runs the driver procedure for cfg and records the result.
func (o *Operator) install(ctx context.Context, e charm.Event, cfg Config) error {
	mgr, err := o.managerFor(ctx, cfg)
	if err != nil {
		o.blocked(ctx, e, err)
		if errors.IsCode(err, errors.ErrCodeUnsupportedHost) {
			// Retrying cannot change the operating system.
			return nil
		}
		return charm.Defer(err)
	}

	rec, err := o.store.Load()
	if err != nil {
		o.blocked(ctx, e, err)
		return charm.Defer(err)
	}

	ictx, cancel := context.WithTimeout(ctx, defaults.DriverTimeout)
	defer cancel()
	installErr := mgr.Install(ictx, rec)

	// Partial progress is saved so remove can reverse it.
	if err := o.store.Save(rec); err != nil {
		slog.Error("failed to save state", "error", err)
		if installErr == nil {
			installErr = err
		}
	}
	if installErr != nil {
		o.blocked(ctx, e, installErr)
		return charm.Defer(installErr)
	}

	if err := o.hooks.ApplicationVersionSet(ctx, rec.DriverVersion); err != nil {
		slog.Warn("workload version not set", "error", err)
	}
	o.report(ctx, slog.LevelInfo, "NVIDIA driver installed",
		"package", rec.DriverPackage,
		"version", rec.DriverVersion,
		"distro", rec.Distro)
	o.setStatus(ctx, charm.ActiveStatus(MsgReady))
	return nil
}

func (o *Operator) onRemove(ctx context.Context, e charm.Event) error {
	o.report(ctx, slog.LevelInfo, MsgRemoving, "event", e.String())
	o.setStatus(ctx, charm.MaintenanceStatus(MsgRemoving))

	rec, err := o.store.Load()
	if err != nil {
		o.blocked(ctx, e, err)
		return charm.Defer(err)
	}

	cfg, err := LoadConfig(ctx, o.hooks)
	if err != nil {
		slog.Warn("using default configuration for remove", "error", err)
		cfg = DefaultConfig()
	}
	// Remove what was installed, even if the configuration changed since.
	if rec.DriverPackage != "" {
		cfg.UbuntuDriverPackage = rec.DriverPackage
		cfg.CentOSDriverPackage = rec.DriverPackage
	}

	mgr, err := o.managerFor(ctx, cfg)
	switch {
	case errors.IsCode(err, errors.ErrCodeUnsupportedHost):
		// Nothing can have been installed here.
		slog.Info("unsupported host, nothing to remove", "reason", errors.Summary(err))
		o.setStatus(ctx, charm.ActiveStatus(MsgIdle))
		return nil
	case err != nil:
		o.blocked(ctx, e, err)
		return charm.Defer(err)
	}

	rctx, cancel := context.WithTimeout(ctx, defaults.DriverTimeout)
	defer cancel()
	if err := mgr.Remove(rctx, rec); err != nil {
		if serr := o.store.Save(rec); serr != nil {
			slog.Error("failed to save state", "error", serr)
		}
		o.blocked(ctx, e, err)
		return charm.Defer(err)
	}

	if err := o.store.Clear(); err != nil {
		o.blocked(ctx, e, err)
		return charm.Defer(err)
	}
	o.report(ctx, slog.LevelInfo, "NVIDIA driver removed", "package", mgr.DriverPackage())
	o.setStatus(ctx, charm.ActiveStatus(MsgIdle))
	return nil
}

func (o *Operator) onUpdateStatus(ctx context.Context, _ charm.Event) error {
	rec, err := o.store.Load()
	if err != nil {
		return err
	}
	if !rec.Installed {
		return nil
	}

	loaded, err := o.moduleLoaded(ctx, defaults.KernelModule)
	if err != nil {
		return err
	}
	if loaded {
		o.setStatus(ctx, charm.ActiveStatus(MsgReady))
	} else {
		o.setStatus(ctx, charm.BlockedStatus(MsgModuleNotLoaded))
	}
	return nil
}

func (o *Operator) onConfigChanged(ctx context.Context, e charm.Event) error {
	rec, err := o.store.Load()
	if err != nil {
		return err
	}
	if !rec.Installed {
		return nil
	}

	cfg, err := LoadConfig(ctx, o.hooks)
	if err != nil {
		o.blocked(ctx, e, err)
		return nil
	}

	mgr, err := o.managerFor(ctx, cfg)
	if err != nil {
		o.blocked(ctx, e, err)
		return nil
	}
	if mgr.DriverPackage() == rec.DriverPackage {
		o.report(ctx, slog.LevelDebug, "driver package unchanged", "package", rec.DriverPackage)
		return nil
	}

	o.report(ctx, slog.LevelInfo, "driver package changed",
		"from", rec.DriverPackage,
		"to", mgr.DriverPackage())
	o.setStatus(ctx, charm.MaintenanceStatus(MsgInstalling))
	return o.install(ctx, e, cfg)
}
