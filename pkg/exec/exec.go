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

package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	utilexec "k8s.io/utils/exec"
)

// maxOutputInError limits how much command output is kept in a CommandError.
const maxOutputInError = 2048

// Runner runs a host command and returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError describes a command that could not be started or exited non-zero.
type CommandError struct {
	Command  string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	line := strings.TrimSpace(strings.Join(append([]string{e.Command}, e.Args...), " "))
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: exit status %d", line, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", line, e.Err)
}

// Unwrap returns the underlying execution error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCodeOf returns the exit code carried by err, or -1 when err is not a
// CommandError for a command that ran to completion.
func ExitCodeOf(err error) int {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	return -1
}

// Option configures a HostRunner.
type Option func(*HostRunner)

// WithExecutor replaces the underlying executor. Tests pass a fake here.
func WithExecutor(e utilexec.Interface) Option {
	return func(r *HostRunner) {
		r.exec = e
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment of every command.
func WithEnv(kv ...string) Option {
	return func(r *HostRunner) {
		r.extraEnv = append(r.extraEnv, kv...)
	}
}

// HostRunner runs commands on the local host through k8s.io/utils/exec.
type HostRunner struct {
	exec     utilexec.Interface
	extraEnv []string
}

// NewHostRunner creates a HostRunner backed by the real executor.
func NewHostRunner(opts ...Option) *HostRunner {
	r := &HostRunner{
		exec: utilexec.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes name with args and returns the combined output.
// A non-zero exit is returned as *CommandError with the exit code set.
func (r *HostRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := r.exec.CommandContext(ctx, name, args...)
	if len(r.extraEnv) > 0 {
		cmd.SetEnv(append(os.Environ(), r.extraEnv...))
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()
	slog.Debug("command finished",
		"command", name,
		"args", args,
		"duration", time.Since(start).String(),
		"failed", err != nil)

	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}

	ce := &CommandError{
		Command:  name,
		Args:     args,
		ExitCode: -1,
		Output:   truncate(string(out), maxOutputInError),
		Err:      err,
	}
	var ee utilexec.ExitError
	if errors.As(err, &ee) && ee.Exited() {
		ce.ExitCode = ee.ExitStatus()
	}
	return out, ce
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
