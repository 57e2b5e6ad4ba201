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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/logging"
)

const (
	name           = "nvidia-driver-operator"
	versionDefault = "dev"

	flagLogLevel  = "log-level"
	flagCharmDir  = "charm-dir"
	flagStateFile = "state-file"
	flagTimeout   = "timeout"
	flagFormat    = "format"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the operator. Juju starts it through the charm's dispatch
// script or a hooks/<name> link, in both cases without arguments, so the
// root action dispatches the current hook.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM so package operations get a chance to stop.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Juju operator that installs the NVIDIA GPU driver on its machine",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `Run without arguments, the operator dispatches the Juju hook named by
JUJU_DISPATCH_PATH, JUJU_HOOK_NAME or the name it was invoked as.

hook  - dispatch a named hook, e.g. when debugging a unit
probe - report what the operator sees on this host without changing it`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvLogLevel),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    flagCharmDir,
				Usage:   "charm directory holding the operator state",
				Sources: cli.EnvVars("JUJU_CHARM_DIR"),
			},
			&cli.StringFlag{
				Name:    flagStateFile,
				Usage:   "operator state file (default: <charm-dir>/" + defaults.StateFileName + ")",
				Sources: cli.EnvVars("NVIDIA_OPERATOR_STATE_FILE"),
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Usage: "maximum time a single hook may run",
				Value: defaults.HookTimeout,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			initLogger(cmd.String(flagLogLevel))
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHook(ctx, cmd, "")
		},
		Commands: []*cli.Command{
			hookCmd(),
			probeCmd(),
			versionCmd(),
		},
	}
}

// stateFile resolves the bolt file from the flags. Juju runs hooks from the
// charm directory, so an unset charm dir means the working directory.
func stateFile(cmd *cli.Command) string {
	if f := cmd.String(flagStateFile); f != "" {
		return f
	}
	dir := cmd.String(flagCharmDir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, defaults.StateFileName)
}

func initLogger(level string) {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", level)
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "%s %s\ncommit: %s\nbuilt:  %s\n", name, version, commit, date)
			return err
		},
	}
}
