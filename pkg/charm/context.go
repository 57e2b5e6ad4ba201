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

import (
	"path/filepath"
	"strings"
)

// Environment variables set by the Juju agent for every hook.
const (
	EnvDispatchPath = "JUJU_DISPATCH_PATH"
	EnvHookName     = "JUJU_HOOK_NAME"
	EnvUnitName     = "JUJU_UNIT_NAME"
	EnvCharmDir     = "JUJU_CHARM_DIR"
	EnvModelName    = "JUJU_MODEL_NAME"
	EnvRelation     = "JUJU_RELATION"
	EnvRelationID   = "JUJU_RELATION_ID"
	EnvRemoteUnit   = "JUJU_REMOTE_UNIT"
	EnvRemoteApp    = "JUJU_REMOTE_APP"
)

// HookContext describes the hook invocation the agent started.
type HookContext struct {
	HookName   string `json:"hook" yaml:"hook"`
	UnitName   string `json:"unit,omitempty" yaml:"unit,omitempty"`
	ModelName  string `json:"model,omitempty" yaml:"model,omitempty"`
	CharmDir   string `json:"charmDir,omitempty" yaml:"charmDir,omitempty"`
	Relation   string `json:"relation,omitempty" yaml:"relation,omitempty"`
	RelationID string `json:"relationId,omitempty" yaml:"relationId,omitempty"`
	RemoteUnit string `json:"remoteUnit,omitempty" yaml:"remoteUnit,omitempty"`
	RemoteApp  string `json:"remoteApp,omitempty" yaml:"remoteApp,omitempty"`
}

// AppName is the application part of the unit name.
func (h *HookContext) AppName() string {
	app, _, _ := strings.Cut(h.UnitName, "/")
	return app
}

// NewHookContext reads the hook context through getenv. The hook name comes
// from JUJU_DISPATCH_PATH ("hooks/<name>"), then JUJU_HOOK_NAME, then the
// base name of argv0 for agents that still run hooks/<name> directly.
func NewHookContext(getenv func(string) string, argv0 string) *HookContext {
	return &HookContext{
		HookName:   hookName(getenv, argv0),
		UnitName:   getenv(EnvUnitName),
		ModelName:  getenv(EnvModelName),
		CharmDir:   getenv(EnvCharmDir),
		Relation:   getenv(EnvRelation),
		RelationID: getenv(EnvRelationID),
		RemoteUnit: getenv(EnvRemoteUnit),
		RemoteApp:  getenv(EnvRemoteApp),
	}
}

func hookName(getenv func(string) string, argv0 string) string {
	if p := getenv(EnvDispatchPath); p != "" {
		return filepath.Base(p)
	}
	if n := getenv(EnvHookName); n != "" {
		return n
	}
	if argv0 == "" {
		return ""
	}
	n := filepath.Base(argv0)
	if n == "dispatch" {
		return ""
	}
	return n
}

// Event returns the event this context dispatches.
func (h *HookContext) Event() Event {
	e := ParseEvent(h.HookName)
	if e.Relation == "" {
		e.Relation = h.Relation
	}
	e.RelationID = h.RelationID
	return e
}
