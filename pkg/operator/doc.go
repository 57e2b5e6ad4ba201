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
// Package operator binds the charm's hook events to the NVIDIA driver
// procedure.
//
// # Events
//
//   - install, <relation>-relation-created: install the driver (status
//     maintenance, then active "Ready")
//   - remove, <relation>-relation-broken: remove it (status maintenance,
//     then active "Idle")
//   - update-status: active while the kernel module is loaded, blocked when
//     it is not
//   - config-changed: install a newly configured driver package
//
// # Failures
//
// An unsupported host sets blocked status and is not retried. Any other
// failure sets blocked status and defers the event, so the next hook the
// agent runs retries it; the hook itself succeeds. A remove or
// relation-broken event drops deferred install events, and the other way
// round, so only the latest intent is replayed.
package operator
