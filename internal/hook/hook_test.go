// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

package hook_test

import (
	"github.com/juju/errors"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/gruyaume/nrf-operator/internal/hook"
)

type hookSuite struct {
	jujutesting.IsolationSuite
}

var _ = gc.Suite(&hookSuite{})

func (s *hookSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	for _, name := range []string{
		"JUJU_HOOK_NAME",
		"JUJU_DISPATCH_PATH",
		"JUJU_RELATION_ID",
		"JUJU_REMOTE_APP",
		"JUJU_REMOTE_UNIT",
		"JUJU_WORKLOAD_NAME",
		"JUJU_UNIT_NAME",
		"JUJU_MODEL_NAME",
		"JUJU_CHARM_DIR",
	} {
		s.PatchEnvironment(name, "")
	}
}

func (s *hookSuite) TestFromEnvHookName(c *gc.C) {
	s.PatchEnvironment("JUJU_HOOK_NAME", "install")

	info, err := hook.FromEnv()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info, jc.DeepEquals, hook.Info{Kind: hook.Install})
}

func (s *hookSuite) TestFromEnvDispatchPath(c *gc.C) {
	s.PatchEnvironment("JUJU_DISPATCH_PATH", "hooks/nrf-pebble-ready")

	info, err := hook.FromEnv()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info.Kind, gc.Equals, hook.NRFPebbleReady)
}

func (s *hookSuite) TestFromEnvHookNamePreferred(c *gc.C) {
	s.PatchEnvironment("JUJU_HOOK_NAME", "upgrade-charm")
	s.PatchEnvironment("JUJU_DISPATCH_PATH", "hooks/install")

	info, err := hook.FromEnv()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info.Kind, gc.Equals, hook.UpgradeCharm)
}

func (s *hookSuite) TestFromEnvMissing(c *gc.C) {
	_, err := hook.FromEnv()
	c.Check(err, jc.Satisfies, errors.IsNotFound)
	c.Check(err, gc.ErrorMatches, "hook name in environment not found")
}

func (s *hookSuite) TestFromEnvRelationHookWithoutRelationID(c *gc.C) {
	s.PatchEnvironment("JUJU_HOOK_NAME", "database-relation-changed")

	_, err := hook.FromEnv()
	c.Check(err, jc.Satisfies, errors.IsNotValid)
	c.Check(err, gc.ErrorMatches,
		`"database-relation-changed" hook without relation id not valid`)
}

func (s *hookSuite) TestFromEnvRelationHook(c *gc.C) {
	s.PatchEnvironment("JUJU_HOOK_NAME", "database-relation-changed")
	s.PatchEnvironment("JUJU_RELATION_ID", "database:0")
	s.PatchEnvironment("JUJU_REMOTE_APP", "mongodb")
	s.PatchEnvironment("JUJU_REMOTE_UNIT", "mongodb/0")

	info, err := hook.FromEnv()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info, jc.DeepEquals, hook.Info{
		Kind:       hook.DatabaseRelationChanged,
		RelationID: "database:0",
		RemoteApp:  "mongodb",
		RemoteUnit: "mongodb/0",
	})
}

func (s *hookSuite) TestFromEnvWorkloadHook(c *gc.C) {
	s.PatchEnvironment("JUJU_HOOK_NAME", "nrf-pebble-ready")
	s.PatchEnvironment("JUJU_WORKLOAD_NAME", "nrf")

	info, err := hook.FromEnv()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info, jc.DeepEquals, hook.Info{
		Kind:     hook.NRFPebbleReady,
		Workload: "nrf",
	})
}

func (s *hookSuite) TestIsRelation(c *gc.C) {
	for _, kind := range []hook.Kind{
		hook.DatabaseRelationCreated,
		hook.DatabaseRelationJoined,
		hook.DatabaseRelationChanged,
		hook.NRFRelationJoined,
	} {
		c.Check(kind.IsRelation(), jc.IsTrue)
	}
	for _, kind := range []hook.Kind{
		hook.Install,
		hook.UpgradeCharm,
		hook.NRFPebbleReady,
		"config-changed",
	} {
		c.Check(kind.IsRelation(), jc.IsFalse)
	}
}

func (s *hookSuite) TestValidate(c *gc.C) {
	c.Check(hook.Info{Kind: hook.Install}.Validate(), jc.ErrorIsNil)
	c.Check(hook.Info{
		Kind:       hook.NRFRelationJoined,
		RelationID: "nrf:3",
	}.Validate(), jc.ErrorIsNil)

	c.Check(hook.Info{}.Validate(), jc.Satisfies, errors.IsNotValid)
	c.Check(hook.Info{Kind: hook.NRFRelationJoined}.Validate(),
		jc.Satisfies, errors.IsNotValid)
}

func (s *hookSuite) TestEnvAccessors(c *gc.C) {
	s.PatchEnvironment("JUJU_UNIT_NAME", "nrf-operator/0")
	s.PatchEnvironment("JUJU_MODEL_NAME", "core")
	s.PatchEnvironment("JUJU_CHARM_DIR", "/var/lib/juju/agents/unit-nrf-operator-0/charm")

	c.Check(hook.UnitName(), gc.Equals, "nrf-operator/0")
	c.Check(hook.ModelName(), gc.Equals, "core")
	c.Check(hook.CharmDir(), gc.Equals, "/var/lib/juju/agents/unit-nrf-operator-0/charm")
}
