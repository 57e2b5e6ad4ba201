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

package defaults

import "time"

// Hook timeouts.
const (
	// HookTimeout bounds a whole dispatch. Driver builds through DKMS can
	// take several minutes on small machines.
	HookTimeout = 45 * time.Minute

	// DriverTimeout bounds a whole install or remove sequence: headers,
	// repository, metadata refresh and the DKMS driver build. Must stay
	// between PackageTimeout and HookTimeout.
	DriverTimeout = 40 * time.Minute

	// HookToolTimeout is the timeout for a single Juju hook tool call
	// (status-set, config-get, juju-log, ...).
	HookToolTimeout = 30 * time.Second
)

// Host timeouts.
const (
	// ProbeTimeout is the timeout for read-only host identification.
	ProbeTimeout = 10 * time.Second

	// PackageTimeout is the timeout for one package manager invocation.
	// Must stay below HookTimeout.
	PackageTimeout = 30 * time.Minute

	// ModuleTimeout is the timeout for loading or unloading a kernel module.
	ModuleTimeout = 2 * time.Minute

	// StateLockTimeout is how long opening the state database waits for
	// another process to release its file lock.
	StateLockTimeout = 30 * time.Second
)

// Package manager lock retry parameters. Only lock contention is retried.
const (
	// LockRetryInitial is the first backoff delay.
	LockRetryInitial = 5 * time.Second

	// LockRetryFactor multiplies the delay after every attempt.
	LockRetryFactor = 2.0

	// LockRetrySteps is the maximum number of attempts.
	LockRetrySteps = 5
)

// HTTP client timeouts for vendor repository downloads.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 2 * time.Minute

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 10 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 30 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPMaxDownloadBytes caps a single repository artifact download.
	HTTPMaxDownloadBytes = 16 << 20
)
