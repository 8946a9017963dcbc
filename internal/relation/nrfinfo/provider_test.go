// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

package nrfinfo_test

import (
	"github.com/juju/errors"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/gruyaume/nrf-operator/internal/relation/nrfinfo"
)

const nrfURL = "http://nrf.core.svc.cluster.local:29510"

type stubRelations struct {
	*jujutesting.Stub

	ids    []string
	leader bool
}

func (r *stubRelations) RelationIDs(name string) ([]string, error) {
	r.AddCall("RelationIDs", name)
	if err := r.NextErr(); err != nil {
		return nil, err
	}
	return r.ids, nil
}

func (r *stubRelations) RelationSet(id string, app bool, settings map[string]string) error {
	r.AddCall("RelationSet", id, app, settings)
	return r.NextErr()
}

func (r *stubRelations) IsLeader() (bool, error) {
	r.AddCall("IsLeader")
	if err := r.NextErr(); err != nil {
		return false, err
	}
	return r.leader, nil
}

type providerSuite struct {
	jujutesting.IsolationSuite
	stub      *jujutesting.Stub
	relations *stubRelations
	provider  *nrfinfo.Provider
}

var _ = gc.Suite(&providerSuite{})

func (s *providerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.stub = &jujutesting.Stub{}
	s.relations = &stubRelations{Stub: s.stub}
	s.provider = nrfinfo.NewProvider(s.relations, "nrf")
}

func (s *providerSuite) TestPublishURL(c *gc.C) {
	s.relations.leader = true
	s.relations.ids = []string{"nrf:3", "nrf:4"}

	err := s.provider.PublishURL(nrfURL)
	c.Assert(err, jc.ErrorIsNil)
	s.stub.CheckCallNames(c, "IsLeader", "RelationIDs", "RelationSet", "RelationSet")
	s.stub.CheckCall(c, 2, "RelationSet", "nrf:3", true, map[string]string{"url": nrfURL})
	s.stub.CheckCall(c, 3, "RelationSet", "nrf:4", true, map[string]string{"url": nrfURL})
}

func (s *providerSuite) TestPublishURLNoRelations(c *gc.C) {
	s.relations.leader = true

	err := s.provider.PublishURL(nrfURL)
	c.Assert(err, jc.ErrorIsNil)
	s.stub.CheckCallNames(c, "IsLeader", "RelationIDs")
}

func (s *providerSuite) TestPublishURLNotLeader(c *gc.C) {
	s.relations.leader = false

	err := s.provider.PublishURL(nrfURL)
	c.Assert(err, jc.ErrorIsNil)
	s.stub.CheckCallNames(c, "IsLeader")
}

func (s *providerSuite) TestPublishURLSetError(c *gc.C) {
	s.relations.leader = true
	s.relations.ids = []string{"nrf:3"}
	s.stub.SetErrors(nil, nil, errors.New("boom"))

	err := s.provider.PublishURL(nrfURL)
	c.Check(err, gc.ErrorMatches, `publishing nrf url on relation "nrf:3": boom`)
}

func (s *providerSuite) TestPublishURLTo(c *gc.C) {
	s.relations.leader = true

	err := s.provider.PublishURLTo("nrf:3", nrfURL)
	c.Assert(err, jc.ErrorIsNil)
	s.stub.CheckCallNames(c, "IsLeader", "RelationSet")
	s.stub.CheckCall(c, 1, "RelationSet", "nrf:3", true, map[string]string{"url": nrfURL})
}

func (s *providerSuite) TestPublishURLToNotLeader(c *gc.C) {
	s.relations.leader = false

	err := s.provider.PublishURLTo("nrf:3", nrfURL)
	c.Assert(err, jc.ErrorIsNil)
	s.stub.CheckCallNames(c, "IsLeader")
}
