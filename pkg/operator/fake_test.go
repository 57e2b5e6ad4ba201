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
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/charm"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/driver"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

type fakeHooks struct {
	config    map[string]string
	configErr error
	statuses  []charm.Status
	version   string
	logs      []string
}

func (f *fakeHooks) ConfigGet(_ context.Context, out any) error {
	if f.configErr != nil {
		return f.configErr
	}
	b, err := json.Marshal(f.config)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeHooks) StatusSet(_ context.Context, s charm.Status) error {
	f.statuses = append(f.statuses, s)
	return nil
}

func (f *fakeHooks) ApplicationVersionSet(_ context.Context, v string) error {
	f.version = v
	return nil
}

func (f *fakeHooks) Log(_ context.Context, level, msg string) error {
	f.logs = append(f.logs, level+" "+msg)
	return nil
}

func (f *fakeHooks) last() charm.Status {
	if len(f.statuses) == 0 {
		return charm.Status{}
	}
	return f.statuses[len(f.statuses)-1]
}

// fakeMachine is the host a fakeManager changes.
type fakeMachine struct {
	pkgs       map[string]bool
	loaded     bool
	installErr error
	removeErr  error
	installs   int
	removes    int
	packages   []string

	// deadlines seen by the last Install and Remove calls.
	installDeadline time.Time
	removeDeadline  time.Time
}

type fakeManager struct {
	target  driver.Target
	pkg     string
	machine *fakeMachine
}

func (m *fakeManager) Target() driver.Target { return m.target }
func (m *fakeManager) DriverPackage() string { return m.pkg }

func (m *fakeManager) Installed(context.Context) (bool, error) {
	return m.machine.pkgs[m.pkg], nil
}

func (m *fakeManager) Install(ctx context.Context, rec *state.Record) error {
	m.machine.installs++
	m.machine.installDeadline, _ = ctx.Deadline()
	if !m.machine.pkgs["linux-headers"] {
		m.machine.pkgs["linux-headers"] = true
		rec.AddPackage("linux-headers")
	}
	if m.machine.installErr != nil {
		return m.machine.installErr
	}
	if !m.machine.pkgs[m.pkg] {
		m.machine.pkgs[m.pkg] = true
		rec.AddPackage(m.pkg)
	}
	m.machine.loaded = true
	rec.Installed = true
	rec.DriverPackage = m.pkg
	rec.DriverVersion = "550.54.15"
	rec.Distro = m.target.Distro
	return nil
}

func (m *fakeManager) Remove(ctx context.Context, rec *state.Record) error {
	m.machine.removes++
	m.machine.removeDeadline, _ = ctx.Deadline()
	if m.machine.removeErr != nil {
		return m.machine.removeErr
	}
	for _, p := range rec.InstalledPackages {
		delete(m.machine.pkgs, p)
	}
	rec.InstalledPackages = nil
	m.machine.loaded = false
	return nil
}

func (m *fakeManager) Version(context.Context) (string, error) {
	return "550.54.15", nil
}

type harness struct {
	hooks      *fakeHooks
	store      *state.Store
	machine    *fakeMachine
	info       *host.Info
	dispatcher *charm.Dispatcher
	configs    []driver.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	h := &harness{
		hooks:   &fakeHooks{config: map[string]string{}},
		store:   s,
		machine: &fakeMachine{pkgs: map[string]bool{}},
		info: &host.Info{
			Release: &host.Release{ID: "ubuntu", VersionID: "22.04"},
			Arch:    "x86_64",
			Kernel:  "5.15.0-105-generic",
		},
	}

	op := New(Options{
		Hooks: h.hooks,
		Store: s,
		Probe: func(context.Context) (*host.Info, error) {
			if h.info == nil {
				return nil, errors.New("os-release unreadable")
			}
			return h.info, nil
		},
		Manager: func(info *host.Info, cfg driver.Config) (driver.Manager, error) {
			tgt, err := driver.Resolve(info)
			if err != nil {
				return nil, err
			}
			h.configs = append(h.configs, cfg)
			pkg := cfg.UbuntuPackage
			if tgt.Family == host.FamilyRHEL {
				pkg = cfg.RHELPackage
			}
			return &fakeManager{target: tgt, pkg: pkg, machine: h.machine}, nil
		},
		ModuleLoaded: func(context.Context, string) (bool, error) {
			return h.machine.loaded, nil
		},
	})
	h.dispatcher = charm.NewDispatcher(s)
	op.Register(h.dispatcher)
	return h
}

func (h *harness) dispatch(t *testing.T, hook string) {
	t.Helper()
	e := charm.ParseEvent(hook)
	if e.Relation != "" {
		e.RelationID = e.Relation + ":1"
	}
	require.NoError(t, h.dispatcher.Dispatch(t.Context(), e))
}

func (h *harness) record(t *testing.T) *state.Record {
	t.Helper()
	r, err := h.store.Load()
	require.NoError(t, err)
	return r
}

func (h *harness) queued(t *testing.T) []string {
	t.Helper()
	events, err := h.store.Deferred()
	require.NoError(t, err)
	names := []string{}
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}
