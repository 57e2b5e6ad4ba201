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


// Package cli implements the nvidia-driver-operator command.
//
// Juju runs the binary through the charm's dispatch script with no arguments.
// The root action then reads the hook context from the environment, opens the
// operator state under the charm directory and dispatches the hook to the
// operator:
//
//	JUJU_DISPATCH_PATH=hooks/install nvidia-driver-operator
//
// Two commands help when debugging a unit by hand:
//
//	nvidia-driver-operator hook update-status
//	nvidia-driver-operator probe --format table
//
// probe never changes the host. It prints the detected release, kernel and
// architecture, the repository the driver would come from (or why the host
// is unsupported), the kernel module status and the recorded state.
package cli
