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
	"fmt"
	"net/url"
	"strings"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/driver"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/errors"
)

// Config is the charm configuration (config.yaml).
type Config struct {
	UbuntuDriverPackage string `json:"ubuntu-driver-package" yaml:"ubuntu-driver-package"`
	CentOSDriverPackage string `json:"centos-driver-package" yaml:"centos-driver-package"`
	RepositoryURL       string `json:"repository-url" yaml:"repository-url"`
}

// DefaultConfig matches the defaults in config.yaml.
func DefaultConfig() Config {
	return Config{
		UbuntuDriverPackage: defaults.UbuntuDriverPackage,
		CentOSDriverPackage: defaults.CentOSDriverPackage,
		RepositoryURL:       defaults.RepositoryURL,
	}
}

// ConfigSource decodes the charm configuration.
type ConfigSource interface {
	ConfigGet(ctx context.Context, out any) error
}

// LoadConfig reads the configuration, fills unset keys with defaults and
// validates the result.
func LoadConfig(ctx context.Context, src ConfigSource) (Config, error) {
	cfg := DefaultConfig()
	if err := src.ConfigGet(ctx, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInternal, "Unable to read charm configuration", err)
	}
	cfg.UbuntuDriverPackage = strings.TrimSpace(cfg.UbuntuDriverPackage)
	cfg.CentOSDriverPackage = strings.TrimSpace(cfg.CentOSDriverPackage)
	cfg.RepositoryURL = strings.TrimSpace(cfg.RepositoryURL)

	d := DefaultConfig()
	if cfg.UbuntuDriverPackage == "" {
		cfg.UbuntuDriverPackage = d.UbuntuDriverPackage
	}
	if cfg.CentOSDriverPackage == "" {
		cfg.CentOSDriverPackage = d.CentOSDriverPackage
	}
	if cfg.RepositoryURL == "" {
		cfg.RepositoryURL = d.RepositoryURL
	}
	return cfg, cfg.Validate()
}

// Validate rejects package names and repository URLs the package managers
// would misread.
func (c Config) Validate() error {
	for _, kv := range [][2]string{
		{"ubuntu-driver-package", c.UbuntuDriverPackage},
		{"centos-driver-package", c.CentOSDriverPackage},
	} {
		key, pkg := kv[0], kv[1]
		if pkg == "" || strings.ContainsAny(pkg, " \t\n") || strings.HasPrefix(pkg, "-") {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Invalid %s %q", key, pkg), map[string]any{"key": key})
		}
	}

	u, err := url.Parse(c.RepositoryURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid repository-url %q", c.RepositoryURL), map[string]any{"key": "repository-url"})
	}
	return nil
}

// Driver converts c to the driver manager configuration.
func (c Config) Driver() driver.Config {
	return driver.Config{
		UbuntuPackage: c.UbuntuDriverPackage,
		RHELPackage:   c.CentOSDriverPackage,
		RepositoryURL: c.RepositoryURL,
	}
}
