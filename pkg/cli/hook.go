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


package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/charm"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/driver"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/fetch"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/operator"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// Host dependencies, replaced in tests.
var (
	newRunner = func() exec.Runner {
		return exec.NewHostRunner(exec.WithEnv("DEBIAN_FRONTEND=noninteractive"))
	}
	probeHost    = host.Probe
	moduleLoaded = host.IsModuleLoaded
	getenv       = os.Getenv
)

func hookCmd() *cli.Command {
	return &cli.Command{
		Name:      "hook",
		Usage:     "Dispatch a hook by name",
		ArgsUsage: "<hook-name>",
		Description: `Runs the handlers for the named hook with the rest of the hook context
taken from the environment, e.g.

  nvidia-driver-operator hook update-status`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			hook := strings.TrimSpace(cmd.Args().First())
			if hook == "" {
				return errors.New(errors.ErrCodeInvalidRequest, "hook name is required")
			}
			return runHook(ctx, cmd, hook)
		},
	}
}

// runHook wires the operator against the host and dispatches one event. An
// empty hook resolves the name from the Juju environment.
func runHook(ctx context.Context, cmd *cli.Command, hook string) error {
	hc := charm.NewHookContext(getenv, os.Args[0])
	if hook != "" {
		hc.HookName = hook
	}
	if hc.HookName == "" {
		return errors.New(errors.ErrCodeInvalidRequest,
			"no hook to dispatch: set JUJU_DISPATCH_PATH or run '"+name+" hook <name>'")
	}

	slog.SetDefault(slog.Default().With(
		"invocation", uuid.NewString(),
		"hook", hc.HookName,
		"unit", hc.UnitName,
		"app", hc.AppName()))

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration(flagTimeout))
	defer cancel()

	store, err := state.Open(stateFile(cmd))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("failed to close state", "error", cerr)
		}
	}()

	runner := newRunner()
	op := operator.New(operator.Options{
		Hooks:        charm.NewHookTools(runner),
		Store:        store,
		Probe:        probeHost,
		Manager:      managerFactory(runner),
		ModuleLoaded: moduleLoaded,
	})

	d := charm.NewDispatcher(store)
	op.Register(d)

	e := hc.Event()
	slog.Info("dispatching", "event", e.String(), "remoteApp", hc.RemoteApp)
	return d.Dispatch(ctx, e)
}

func managerFactory(runner exec.Runner) operator.ManagerFactory {
	return func(info *host.Info, cfg driver.Config) (driver.Manager, error) {
		return driver.NewManager(info, cfg, driver.Deps{
			Runner:  runner,
			Fetcher: fetch.NewClient(fetch.WithUserAgent(name + "/" + version)),
			Modules: &host.ModuleLoader{Runner: runner, Units: host.Systemd{}},
		})
	}
}
