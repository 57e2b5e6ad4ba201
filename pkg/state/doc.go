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
// Package state persists what the operator has done to a unit across hook
// invocations.
//
// Each hook runs in a fresh process, so anything that must survive between
// install and remove lives here: whether the driver is installed, which
// packages the operator added (remove reverses only those), the repository
// file it wrote, and the queue of deferred events.
//
// The store is a bolt database, by default at
// $JUJU_CHARM_DIR/.nvidia-driver-state.db. Values are YAML encoded so the
// file stays inspectable with standard bolt tooling.
package state
