// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package database implements the requirer side of the mongodb_client
// relation interface: it asks the provider for a named database and
// watches the provider's application data bag for the credentials that
// signal the database has been created.
package database

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("nrf-operator.relation.database")

// RelationClient is the slice of the hook tools the requirer needs.
type RelationClient interface {
	RelationIDs(name string) ([]string, error)
	RelationGet(id, member string, app bool) (map[string]string, error)
	RelationSet(id string, app bool, settings map[string]string) error
	IsLeader() (bool, error)
}

// Credentials is what the provider publishes once the requested database
// exists. Only URIs is consumed by this charm; the remaining fields are
// part of the interface and carried for completeness.
type Credentials struct {
	Username string
	Password string

	// URIs is a comma-separated list of connection URIs; the first one
	// is the one to use.
	URIs string

	Endpoints string
}

// Requirer manages this unit's side of the database relation.
type Requirer struct {
	relations    RelationClient
	relationName string
	databaseName string
}

// NewRequirer returns a Requirer for the named relation endpoint,
// requesting the given database.
func NewRequirer(relations RelationClient, relationName, databaseName string) *Requirer {
	return &Requirer{
		relations:    relations,
		relationName: relationName,
		databaseName: databaseName,
	}
}

// Created reports whether the database relation has been established.
func (r *Requirer) Created() (bool, error) {
	ids, err := r.relations.RelationIDs(r.relationName)
	if err != nil {
		return false, errors.Trace(err)
	}
	return len(ids) > 0, nil
}

// PublishRequest writes the requested database name into the local
// application data bag of the given relation, so the provider knows
// which database to create. Application data bags are leader-writable
// only; non-leaders skip the write.
func (r *Requirer) PublishRequest(relationID string) error {
	leader, err := r.relations.IsLeader()
	if err != nil {
		return errors.Trace(err)
	}
	if !leader {
		logger.Debugf("not leader, skipping database request on %q", relationID)
		return nil
	}
	err = r.relations.RelationSet(relationID, true, map[string]string{
		"database": r.databaseName,
	})
	return errors.Annotatef(err, "requesting database %q on relation %q", r.databaseName, relationID)
}

// Credentials reads the provider's application data bag on the given
// relation. The second return value reports whether the provider has
// published connection URIs yet; until it has, the database cannot be
// considered created.
func (r *Requirer) Credentials(relationID, remoteApp string) (Credentials, bool, error) {
	if remoteApp == "" {
		return Credentials{}, false, nil
	}
	settings, err := r.relations.RelationGet(relationID, remoteApp, true)
	if err != nil {
		return Credentials{}, false, errors.Trace(err)
	}
	creds := Credentials{
		Username:  settings["username"],
		Password:  settings["password"],
		URIs:      settings["uris"],
		Endpoints: settings["endpoints"],
	}
	return creds, creds.URIs != "", nil
}
