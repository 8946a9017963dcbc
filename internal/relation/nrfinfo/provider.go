// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package nrfinfo implements the provider side of the nrf relation
// interface: publishing the URL at which the running NRF can be reached
// to every consumer of the relation.
package nrfinfo

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("nrf-operator.relation.nrfinfo")

// RelationClient is the slice of the hook tools the provider needs.
type RelationClient interface {
	RelationIDs(name string) ([]string, error)
	RelationSet(id string, app bool, settings map[string]string) error
	IsLeader() (bool, error)
}

// Provider manages this application's side of the nrf relation.
type Provider struct {
	relations    RelationClient
	relationName string
}

// NewProvider returns a Provider for the named relation endpoint.
func NewProvider(relations RelationClient, relationName string) *Provider {
	return &Provider{relations: relations, relationName: relationName}
}

// PublishURL writes the NRF URL into the application data bag of every
// established nrf relation. The write is an overwrite, so republishing
// the same URL is a no-op from the consumers' point of view. Non-leaders
// skip the write: only the leader may touch application data.
func (p *Provider) PublishURL(url string) error {
	leader, err := p.relations.IsLeader()
	if err != nil {
		return errors.Trace(err)
	}
	if !leader {
		logger.Debugf("not leader, skipping url publication")
		return nil
	}
	ids, err := p.relations.RelationIDs(p.relationName)
	if err != nil {
		return errors.Trace(err)
	}
	for _, id := range ids {
		if err := p.publish(id, url); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// PublishURLTo writes the NRF URL into the application data bag of a
// single relation, typically the one that just joined.
func (p *Provider) PublishURLTo(relationID, url string) error {
	leader, err := p.relations.IsLeader()
	if err != nil {
		return errors.Trace(err)
	}
	if !leader {
		logger.Debugf("not leader, skipping url publication on %q", relationID)
		return nil
	}
	return p.publish(relationID, url)
}

func (p *Provider) publish(relationID, url string) error {
	err := p.relations.RelationSet(relationID, true, map[string]string{
		"url": url,
	})
	return errors.Annotatef(err, "publishing nrf url on relation %q", relationID)
}
