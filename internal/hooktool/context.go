// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package hooktool is a client for the hook tools Juju puts on the PATH
// of a dispatched hook: status-set, the relation tools, is-leader and
// juju-log. Structured output is requested as JSON, which is what the
// tools emit under --format=json.
package hooktool

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"sort"

	"github.com/juju/errors"

	"github.com/gruyaume/nrf-operator/core/status"
)

// CommandRunner runs a single hook tool and returns its stdout.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

// ExecRunner runs hook tools as child processes, which is how they are
// meant to be invoked from charm code: Juju's agent serves them over the
// socket identified by the environment the tool inherits.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(name string, args ...string) ([]byte, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, errors.Annotatef(err, "%s: %s", name, bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, errors.Annotatef(err, "running %s", name)
	}
	return out, nil
}

// Context exposes the hook tools as typed calls. The zero runner is
// replaced with an ExecRunner; tests substitute their own.
type Context struct {
	runner CommandRunner
}

// NewContext returns a Context backed by the given runner, or by an
// ExecRunner when runner is nil.
func NewContext(runner CommandRunner) *Context {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Context{runner: runner}
}

// StatusSet sets the unit workload status. The message is optional and
// ignored by Juju for active status anyway.
func (ctx *Context) StatusSet(st status.Status, message string) error {
	if !status.ValidWorkloadStatus(st) {
		return errors.NotValidf("workload status %q", st)
	}
	args := []string{st.String()}
	if message != "" {
		args = append(args, message)
	}
	_, err := ctx.runner.Run("status-set", args...)
	return errors.Trace(err)
}

// RelationIDs returns the ids of every established relation with the
// given endpoint name, in the "<name>:<id>" form the other relation
// tools accept.
func (ctx *Context) RelationIDs(name string) ([]string, error) {
	out, err := ctx.runner.Run("relation-ids", name, "--format=json")
	if err != nil {
		return nil, errors.Trace(err)
	}
	var ids []string
	if err := json.Unmarshal(out, &ids); err != nil {
		return nil, errors.Annotatef(err, "parsing relation-ids output for %q", name)
	}
	return ids, nil
}

// RelationGet reads the settings a member has published into the
// relation identified by id. With app set, member names an application
// and the application data bag is read instead of a unit's.
func (ctx *Context) RelationGet(id, member string, app bool) (map[string]string, error) {
	args := []string{"-r", id}
	if app {
		args = append(args, "--app")
	}
	args = append(args, "--format=json", "-", member)
	out, err := ctx.runner.Run("relation-get", args...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var settings map[string]string
	if err := json.Unmarshal(out, &settings); err != nil {
		return nil, errors.Annotatef(err, "parsing relation-get output for %q", id)
	}
	return settings, nil
}

// RelationSet writes settings into the unit's data bag for the relation
// identified by id, or into the application data bag with app set.
// Writes are overwrites; keys are passed in sorted order so repeated
// calls produce identical invocations.
func (ctx *Context) RelationSet(id string, app bool, settings map[string]string) error {
	args := []string{"-r", id}
	if app {
		args = append(args, "--app")
	}
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, key+"="+settings[key])
	}
	_, err := ctx.runner.Run("relation-set", args...)
	return errors.Trace(err)
}

// IsLeader reports whether this unit currently holds application
// leadership. Only the leader may write application data bags.
func (ctx *Context) IsLeader() (bool, error) {
	out, err := ctx.runner.Run("is-leader", "--format=json")
	if err != nil {
		return false, errors.Trace(err)
	}
	var leader bool
	if err := json.Unmarshal(out, &leader); err != nil {
		return false, errors.Annotate(err, "parsing is-leader output")
	}
	return leader, nil
}

// JujuLog sends a message to the Juju log at the given level.
func (ctx *Context) JujuLog(level string, message string) error {
	_, err := ctx.runner.Run("juju-log", "--log-level", level, message)
	return errors.Trace(err)
}
