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
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
	"github.com/NVIDIA/nvidia-driver-operator/pkg/exec"
)

// juju-log levels.
const (
	LogDebug   = "DEBUG"
	LogInfo    = "INFO"
	LogWarning = "WARNING"
	LogError   = "ERROR"
)

// maxStatusMessage keeps status messages readable in juju status.
const maxStatusMessage = 512

// truncate shortens msg to at most n bytes ending in "...", cutting on a
// rune boundary.
func truncate(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}

// HookTools calls the Juju hook tools found on PATH during a hook.
type HookTools struct {
	Runner exec.Runner
}

// NewHookTools returns HookTools over r.
func NewHookTools(r exec.Runner) *HookTools {
	return &HookTools{Runner: r}
}

func (h *HookTools) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.HookToolTimeout)
	defer cancel()
	return h.Runner.Run(ctx, name, args...)
}

// StatusSet sets the unit workload status.
func (h *HookTools) StatusSet(ctx context.Context, s Status) error {
	msg := truncate(s.Message, maxStatusMessage)
	if _, err := h.run(ctx, "status-set", string(s.State), msg); err != nil {
		return fmt.Errorf("failed to set status %s: %w", s.State, err)
	}
	return nil
}

// ApplicationVersionSet sets the workload version shown in juju status.
func (h *HookTools) ApplicationVersionSet(ctx context.Context, version string) error {
	if _, err := h.run(ctx, "application-version-set", version); err != nil {
		return fmt.Errorf("failed to set application version: %w", err)
	}
	return nil
}

// ConfigGet decodes the charm configuration into out.
func (h *HookTools) ConfigGet(ctx context.Context, out any) error {
	b, err := h.run(ctx, "config-get", "--format=json", "--all")
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Log writes msg to the unit log at level.
func (h *HookTools) Log(ctx context.Context, level, msg string) error {
	if _, err := h.run(ctx, "juju-log", "--log-level", strings.ToUpper(level), msg); err != nil {
		return fmt.Errorf("failed to write juju log: %w", err)
	}
	return nil
}
