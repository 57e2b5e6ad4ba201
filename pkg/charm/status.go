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

// StatusState is a unit workload status.
type StatusState string

const (
	StatusMaintenance StatusState = "maintenance"
	StatusBlocked     StatusState = "blocked"
	StatusActive      StatusState = "active"
)

// Status is what status-set reports to the operator.
type Status struct {
	State   StatusState
	Message string
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.State)
	}
	return string(s.State) + ": " + s.Message
}

func MaintenanceStatus(msg string) Status { return Status{State: StatusMaintenance, Message: msg} }
func BlockedStatus(msg string) Status { return Status{State: StatusBlocked, Message: msg} }
func ActiveStatus(msg string) Status { return Status{State: StatusActive, Message: msg} }
