// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package hook identifies the Juju hook being dispatched and carries the
// per-hook context the charm needs, read from the environment Juju sets
// up for the dispatch process. It also implements the deferred-hook queue
// backing the charm's event redelivery.
package hook

import (
	"os"
	"path/filepath"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Kind is the name of a dispatched hook.
type Kind string

// The hooks this charm reacts to. Anything else dispatched by Juju is
// acknowledged without running a handler.
const (
	Install                 Kind = "install"
	UpgradeCharm            Kind = "upgrade-charm"
	NRFPebbleReady          Kind = "nrf-pebble-ready"
	DatabaseRelationCreated Kind = "database-relation-created"
	DatabaseRelationJoined  Kind = "database-relation-joined"
	DatabaseRelationChanged Kind = "database-relation-changed"
	NRFRelationJoined       Kind = "nrf-relation-joined"
)

// relationHooks are the kinds that run with a relation in context. Juju
// sets JUJU_RELATION_ID for exactly these.
var relationHooks = set.NewStrings(
	string(DatabaseRelationCreated),
	string(DatabaseRelationJoined),
	string(DatabaseRelationChanged),
	string(NRFRelationJoined),
)

// IsRelation reports whether the kind runs with a relation in context.
func (k Kind) IsRelation() bool {
	return relationHooks.Contains(string(k))
}

// Info holds everything the charm may need to know about a single hook
// invocation: the kind, plus only the fields that kind carries. Relation
// hooks carry the relation id and the remote side; pebble-ready hooks
// carry the workload name. Info is the unit of deferral, so it must
// round-trip through YAML unchanged.
type Info struct {
	// Kind is the hook being run.
	Kind Kind `yaml:"kind"`

	// RelationID identifies the relation a relation hook runs for, in
	// the "<name>:<id>" form the relation tools accept.
	RelationID string `yaml:"relation-id,omitempty"`

	// RemoteApp is the application on the other side of the relation,
	// when the hook has one.
	RemoteApp string `yaml:"remote-app,omitempty"`

	// RemoteUnit is the unit on the other side of the relation, when
	// the hook has one.
	RemoteUnit string `yaml:"remote-unit,omitempty"`

	// Workload is the container a pebble-ready hook fired for.
	Workload string `yaml:"workload,omitempty"`
}

// Validate returns an error if the info is not internally consistent.
func (info Info) Validate() error {
	if info.Kind == "" {
		return errors.NotValidf("hook info with empty kind")
	}
	if info.Kind.IsRelation() && info.RelationID == "" {
		return errors.NotValidf("%q hook without relation id", info.Kind)
	}
	return nil
}

// FromEnv builds the Info for the hook currently being dispatched.
// Juju names the hook through JUJU_HOOK_NAME, or through the dispatch
// path when the charm is invoked via the dispatch mechanism.
func FromEnv() (Info, error) {
	name := os.Getenv("JUJU_HOOK_NAME")
	if name == "" {
		if path := os.Getenv("JUJU_DISPATCH_PATH"); path != "" {
			name = filepath.Base(path)
		}
	}
	if name == "" {
		return Info{}, errors.NotFoundf("hook name in environment")
	}
	info := Info{
		Kind:       Kind(name),
		RelationID: os.Getenv("JUJU_RELATION_ID"),
		RemoteApp:  os.Getenv("JUJU_REMOTE_APP"),
		RemoteUnit: os.Getenv("JUJU_REMOTE_UNIT"),
		Workload:   os.Getenv("JUJU_WORKLOAD_NAME"),
	}
	if err := info.Validate(); err != nil {
		return Info{}, errors.Trace(err)
	}
	return info, nil
}

// UnitName returns the name of the unit this dispatch runs for.
func UnitName() string {
	return os.Getenv("JUJU_UNIT_NAME")
}

// ModelName returns the name of the model the unit is deployed in.
func ModelName() string {
	return os.Getenv("JUJU_MODEL_NAME")
}

// CharmDir returns the root directory of the charm being run. It is the
// only place the charm may keep state of its own between dispatches.
func CharmDir() string {
	return os.Getenv("JUJU_CHARM_DIR")
}
