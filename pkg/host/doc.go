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

// Package host identifies the machine the driver goes onto and manages the
// driver's kernel module.
//
// # Data Sources
//
//   - /etc/os-release (fallback /usr/lib/os-release): distribution ID, ID_LIKE, VERSION_ID
//   - /proc/sys/kernel/osrelease: running kernel, for kernel-devel/headers packages
//   - /proc/modules: loaded kernel modules
//   - /sys/module/<name>/version: version of a loaded module
//
// Probe reads these in parallel and never mutates the host, so it is safe to
// run before the supported-OS check.
//
// # Kernel Modules
//
// ModuleLoader writes /etc/modules-load.d/<name>.conf so the module comes back
// after reboot, then asks systemd to restart systemd-modules-load.service over
// D-Bus. When systemd is not reachable it falls back to modprobe. Either way
// the result is checked against /proc/modules.
package host
