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
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/driver"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/host"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/serializer"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// probeReport is what the probe command prints.
type probeReport struct {
	Host        *host.Info     `json:"host" yaml:"host"`
	Target      *driver.Target `json:"target,omitempty" yaml:"target,omitempty"`
	Unsupported string         `json:"unsupported,omitempty" yaml:"unsupported,omitempty"`
	Module      moduleReport   `json:"module" yaml:"module"`
	State       *state.Record  `json:"state,omitempty" yaml:"state,omitempty"`
	Supported   []string       `json:"supported" yaml:"supported"`
}

type moduleReport struct {
	Loaded    bool   `json:"loaded" yaml:"loaded"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Persisted bool   `json:"persisted" yaml:"persisted"`
}

func probeCmd() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Report the host, driver target and operator state",
		Description: `Reads the os-release, kernel release, loaded modules and the operator's
state file. Nothing on the host is changed.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagFormat,
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("output format (%s)", strings.Join(serializer.SupportedFormats(), ", ")),
				Value:   string(serializer.FormatYAML),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}
			report, err := probe(ctx, stateFile(cmd))
			if err != nil {
				return err
			}
			return serializer.NewWriter(format, cmd.Root().Writer).Serialize(report)
		},
	}
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(strings.ToLower(strings.TrimSpace(cmd.String(flagFormat))))
	if f.IsUnknown() {
		return "", errors.New(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown output format %q, expected one of %s",
				cmd.String(flagFormat), strings.Join(serializer.SupportedFormats(), ", ")))
	}
	return f, nil
}

func probe(ctx context.Context, file string) (*probeReport, error) {
	info, err := probeHost(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "Unable to identify host", err)
	}

	r := &probeReport{Host: info, Supported: driver.Supported()}
	if t, err := driver.Resolve(info); err != nil {
		r.Unsupported = errors.Summary(err)
	} else {
		r.Target = &t
	}

	r.Module.Loaded = info.HasModule(defaults.KernelModule)
	r.Module.Persisted = host.ModulePersisted(defaults.KernelModule)
	if r.Module.Loaded {
		if v, err := host.ModuleVersion(defaults.KernelModule); err == nil {
			r.Module.Version = v
		}
	}

	// Opening the store creates it, so only read state that already exists.
	if _, err := os.Stat(file); err == nil {
		store, err := state.Open(file)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if r.State, err = store.Load(); err != nil {
			return nil, err
		}
	}
	return r, nil
}
