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
	"strings"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// Kind classifies hook events.
type Kind string

const (
	Install         Kind = "install"
	Remove          Kind = "remove"
	Start           Kind = "start"
	Stop            Kind = "stop"
	ConfigChanged   Kind = "config-changed"
	UpdateStatus    Kind = "update-status"
	UpgradeCharm    Kind = "upgrade-charm"
	RelationCreated Kind = "relation-created"
	RelationBroken  Kind = "relation-broken"
	Unknown         Kind = "unknown"
)

var simpleKinds = map[string]Kind{
	"install":        Install,
	"remove":         Remove,
	"start":          Start,
	"stop":           Stop,
	"config-changed": ConfigChanged,
	"update-status":  UpdateStatus,
	"upgrade-charm":  UpgradeCharm,
}

var relationKinds = []Kind{RelationCreated, RelationBroken}

// Event is one hook event.
type Event struct {
	Name       string
	Kind       Kind
	Relation   string
	RelationID string
}

// ParseEvent classifies a hook name such as "install" or
// "juju-info-relation-created".
func ParseEvent(name string) Event {
	e := Event{Name: name, Kind: Unknown}
	if k, ok := simpleKinds[name]; ok {
		e.Kind = k
		return e
	}
	for _, k := range relationKinds {
		if rel, ok := strings.CutSuffix(name, "-"+string(k)); ok && rel != "" {
			e.Kind = k
			e.Relation = rel
			return e
		}
	}
	return e
}

func (e Event) String() string {
	if e.RelationID != "" {
		return e.Name + "[" + e.RelationID + "]"
	}
	return e.Name
}

func (e Event) record() state.Event {
	return state.Event{Name: e.Name, Relation: e.Relation, RelationID: e.RelationID}
}

func fromRecord(r state.Event) Event {
	e := ParseEvent(r.Name)
	if r.Relation != "" {
		e.Relation = r.Relation
	}
	e.RelationID = r.RelationID
	return e
}

func (e Event) same(o Event) bool {
	return e.Name == o.Name && e.RelationID == o.RelationID
}
