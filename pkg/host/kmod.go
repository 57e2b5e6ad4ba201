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
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
)

var (
	filePathKMod        = "/proc/modules"
	dirModulesLoad      = defaults.ModulesLoadDir
	filePathModuleVer   = "/sys/module/%s/version"
	modulesLoadUnitName = "systemd-modules-load.service"
)

// LoadedModules returns the names of the loaded kernel modules.
func LoadedModules(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, err := readLines(filePathKMod)
	if err != nil {
		return nil, fmt.Errorf("failed to read kernel modules from %s: %w", filePathKMod, err)
	}

	mods := make([]string, 0, len(lines))
	for _, l := range lines {
		if f := strings.Fields(l); len(f) > 0 {
			mods = append(mods, f[0])
		}
	}
	return mods, nil
}

// IsModuleLoaded reports whether module name appears in /proc/modules.
func IsModuleLoaded(ctx context.Context, name string) (bool, error) {
	mods, err := LoadedModules(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range mods {
		if m == name {
			return true, nil
		}
	}
	return false, nil
}

// ModuleVersion returns the version the loaded module reports in sysfs.
func ModuleVersion(name string) (string, error) {
	lines, err := readLines(fmt.Sprintf(filePathModuleVer, name))
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("module %s reports no version", name)
	}
	return lines[0], nil
}

// ModuleLoader loads kernel modules now and on every boot.
type ModuleLoader struct {
	// Runner issues modprobe.
	Runner exec.Runner

	// Units restarts systemd-modules-load. Nil means modprobe only.
	Units UnitRestarter
}

func modulesLoadFile(name string) string {
	return filepath.Join(dirModulesLoad, name+".conf")
}

// Load makes sure module name is loaded and listed in modules-load.d.
// A module that is already loaded is left alone apart from the boot entry.
func (l *ModuleLoader) Load(ctx context.Context, name string) error {
	if _, err := WriteFileIfChanged(modulesLoadFile(name), []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to persist module %s: %w", name, err)
	}

	loaded, err := IsModuleLoaded(ctx, name)
	if err != nil {
		return err
	}
	if loaded {
		slog.Debug("kernel module already loaded", "module", name)
		return nil
	}

	if l.Units != nil {
		if err := l.Units.RestartUnit(ctx, modulesLoadUnitName); err != nil {
			slog.Warn("systemd module load failed, falling back to modprobe",
				"module", name, "error", err)
		} else if loaded, err = IsModuleLoaded(ctx, name); err == nil && loaded {
			slog.Info("kernel module loaded", "module", name, "via", modulesLoadUnitName)
			return nil
		}
	}

	if _, err := l.Runner.Run(ctx, "modprobe", name); err != nil {
		return fmt.Errorf("failed to load kernel module %s: %w", name, err)
	}

	loaded, err = IsModuleLoaded(ctx, name)
	if err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("kernel module %s is not loaded after modprobe", name)
	}
	slog.Info("kernel module loaded", "module", name, "via", "modprobe")
	return nil
}

// Unload unloads mods in order, skipping modules that are not loaded.
// It stops at the first failure.
func (l *ModuleLoader) Unload(ctx context.Context, mods ...string) error {
	loaded, err := LoadedModules(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(loaded))
	for _, m := range loaded {
		present[m] = true
	}

	for _, m := range mods {
		if !present[m] {
			continue
		}
		if _, err := l.Runner.Run(ctx, "modprobe", "-r", m); err != nil {
			return fmt.Errorf("failed to unload kernel module %s: %w", m, err)
		}
		slog.Info("kernel module unloaded", "module", m)
	}
	return nil
}

// Forget removes the modules-load.d entry for name.
func (l *ModuleLoader) Forget(name string) error {
	_, err := RemoveFileIfExists(modulesLoadFile(name))
	return err
}

// Version returns the version of loaded module name.
func (l *ModuleLoader) Version(name string) (string, error) {
	return ModuleVersion(name)
}

// ModulePersisted reports whether a modules-load.d entry exists for name.
func ModulePersisted(name string) bool {
	_, err := os.Stat(modulesLoadFile(name))
	return err == nil
}
