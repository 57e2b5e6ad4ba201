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
package state

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
)

var (
	bucketRecord   = []byte("record")
	bucketDeferred = []byte("deferred")
	keyDriver      = []byte("driver")
)

// Record is what the operator knows it has done to the host.
type Record struct {
	Installed     bool   `json:"installed" yaml:"installed"`
	DriverPackage string `json:"driverPackage,omitempty" yaml:"driverPackage,omitempty"`
	DriverVersion string `json:"driverVersion,omitempty" yaml:"driverVersion,omitempty"`
	Distro        string `json:"distro,omitempty" yaml:"distro,omitempty"`

	// InstalledPackages were absent before install and added by the
	// operator. Remove only reverses these.
	InstalledPackages []string `json:"installedPackages,omitempty" yaml:"installedPackages,omitempty"`

	// RepositoryFile is the repository definition written on install, if any.
	RepositoryFile string `json:"repositoryFile,omitempty" yaml:"repositoryFile,omitempty"`

	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// AddPackage records pkg as operator-installed, ignoring duplicates.
func (r *Record) AddPackage(pkg string) {
	for _, p := range r.InstalledPackages {
		if p == pkg {
			return
		}
	}
	r.InstalledPackages = append(r.InstalledPackages, pkg)
}

// DropPackage forgets pkg once it has been removed.
func (r *Record) DropPackage(pkg string) {
	out := r.InstalledPackages[:0]
	for _, p := range r.InstalledPackages {
		if p != pkg {
			out = append(out, p)
		}
	}
	r.InstalledPackages = out
}

// Event is a deferred hook event, replayed before the next dispatched event.
type Event struct {
	Name       string    `yaml:"name"`
	Relation   string    `yaml:"relation,omitempty"`
	RelationID string    `yaml:"relationId,omitempty"`
	DeferredAt time.Time `yaml:"deferredAt"`
}

// Store persists unit state in a bolt database in the charm directory.
// Bolt holds an exclusive file lock while the store is open, which
// serializes concurrent dispatches on the same unit.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the store at file.
func Open(file string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(file, 0o600, &bolt.Options{Timeout: defaults.StateLockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open state %s: %w", file, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRecord, bucketDeferred} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state %s: %w", file, err)
	}

	return &Store{db: db}, nil
}

// Load returns the stored record, or a zero Record when none was saved.
func (s *Store) Load() (*Record, error) {
	r := &Record{}
	err := s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketRecord).Get(keyDriver)
		if val == nil {
			return nil
		}
		return yaml.Unmarshal(val, r)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return r, nil
}

// Save stores r, stamping UpdatedAt.
func (s *Store) Save(r *Record) error {
	r.UpdatedAt = time.Now().UTC()
	val, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecord).Put(keyDriver, val)
	})
}

// Clear forgets the record. Deferred events are kept.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecord).Delete(keyDriver)
	})
}

// Defer queues e unless an event with the same name and relation id is
// already queued.
func (s *Store) Defer(e Event) error {
	if e.DeferredAt.IsZero() {
		e.DeferredAt = time.Now().UTC()
	}
	val, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeferred)
		dup := false
		if err := b.ForEach(func(_, v []byte) error {
			var q Event
			if err := yaml.Unmarshal(v, &q); err != nil {
				return err
			}
			if q.Name == e.Name && q.RelationID == e.RelationID {
				dup = true
			}
			return nil
		}); err != nil {
			return err
		}
		if dup {
			return nil
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), val)
	})
}

// Deferred returns the queued events, oldest first.
func (s *Store) Deferred() ([]Event, error) {
	var out []Event
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeferred).ForEach(func(_, v []byte) error {
			var e Event
			if err := yaml.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read deferred events: %w", err)
	}
	return out, nil
}

// Resolve drops queued events matching the name and relation id of e.
func (s *Store) Resolve(e Event) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeferred)
		var keys [][]byte
		if err := b.ForEach(func(k, v []byte) error {
			var q Event
			if err := yaml.Unmarshal(v, &q); err != nil {
				return err
			}
			if q.Name == e.Name && q.RelationID == e.RelationID {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the database and its file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
