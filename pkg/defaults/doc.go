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

// Package defaults provides centralized configuration constants for the operator.
//
// # Timeout Categories
//
//   - Hook timeouts: a whole dispatch and single hook tool calls
//   - Host timeouts: probing, package manager runs, module load/unload
//   - Lock retry: backoff for dpkg/rpm lock contention
//   - HTTP client timeouts: vendor repository downloads
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.PackageTimeout)
//	defer cancel()
//
// Vendor defaults (repository URL, driver package names) and filesystem
// locations live in paths.go.
package defaults
