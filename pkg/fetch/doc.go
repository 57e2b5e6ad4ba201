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
// Package fetch downloads artifacts from NVIDIA's CUDA network repositories.
//
// The client uses bounded connect, TLS and header timeouts from
// pkg/defaults, honors HTTP(S)_PROXY from the environment and caps response
// bodies at defaults.HTTPMaxDownloadBytes. Repository files and keyring
// packages are small, so bodies are read fully into memory.
//
// Usage:
//
//	c := fetch.NewClient()
//	repo, err := c.Read(ctx, "https://developer.download.nvidia.com/compute/cuda/repos/rhel9/x86_64/cuda-rhel9.repo")
//	deb, err := c.Download(ctx, keyringURL, tmpDir)
package fetch
