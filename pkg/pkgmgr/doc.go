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
// Package pkgmgr wraps the host package managers the driver installation
// procedure drives.
//
// Apt covers Debian-family hosts (apt-get for repository packages, dpkg for
// local files, dpkg-query for state). Yum covers RHEL-family hosts through
// yum on release 7 and dnf from 8 on, with rpm for state queries.
//
// Mutating calls are retried with exponential backoff only while another
// process holds the package database lock (unattended-upgrades is the usual
// culprit on fresh Ubuntu machines). Every other failure is returned as the
// underlying *exec.CommandError so callers can report the command output.
package pkgmgr
