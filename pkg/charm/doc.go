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
// Package charm is the hook runtime for a Juju machine charm written as a
// single dispatch binary.
//
// # Hook Context
//
// The Juju agent runs the charm's dispatch script once per hook with
// JUJU_DISPATCH_PATH=hooks/<name> and relation details in the environment.
// NewHookContext reads them; HookContext.Event classifies the hook:
//
//	install, remove, start, stop, config-changed, update-status, upgrade-charm
//	<relation>-relation-created, <relation>-relation-broken
//
// # Hook Tools
//
// HookTools wraps status-set, application-version-set, config-get and
// juju-log. Each call is bounded by defaults.HookToolTimeout.
//
// # Deferral
//
// A handler returns Defer(err) when the event should be retried. The
// Dispatcher stores the event and, on the next hook of any kind, re-runs it
// before the current event:
//
//	d := charm.NewDispatcher(store)
//	d.Observe(charm.Install, onInstall)
//	err := d.Dispatch(ctx, hc.Event())
//
// Handlers return other errors only for faults the agent should surface by
// failing the hook.
package charm
