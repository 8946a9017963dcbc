// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// nrf-operator is the charm executable for the NRF (Network Repository
// Function) of a 5G core. Juju runs it once per hook through the
// dispatch script; it redelivers any deferred hooks, runs the handler
// for the live one, and exits.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/names/v5"

	"github.com/gruyaume/nrf-operator/internal/charm"
	"github.com/gruyaume/nrf-operator/internal/hook"
	"github.com/gruyaume/nrf-operator/internal/hooktool"
	"github.com/gruyaume/nrf-operator/internal/kubernetes"
	"github.com/gruyaume/nrf-operator/internal/workload"
)

var logger = loggo.GetLogger("nrf-operator")

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "nrf-operator: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	tools := hooktool.NewContext(nil)
	setupLogging(tools)

	info, err := hook.FromEnv()
	if err != nil {
		return errors.Trace(err)
	}

	unitName := hook.UnitName()
	if !names.IsValidUnit(unitName) {
		return errors.NotValidf("unit name %q", unitName)
	}
	appName, err := names.UnitApplication(unitName)
	if err != nil {
		return errors.Trace(err)
	}
	modelName := hook.ModelName()
	if modelName == "" {
		return errors.NotValidf("empty model name")
	}

	container, err := workload.NewContainer(charm.ContainerName)
	if err != nil {
		return errors.Trace(err)
	}
	patcher, err := kubernetes.NewInClusterPatcher(modelName, appName, charm.ServicePorts())
	if err != nil {
		return errors.Trace(err)
	}

	c, err := charm.New(charm.Config{
		Application: appName,
		Model:       modelName,
		Container:   container,
		Status:      tools,
		Relations:   tools,
		Patcher:     patcher,
	})
	if err != nil {
		return errors.Trace(err)
	}

	charmDir := hook.CharmDir()
	if charmDir == "" {
		charmDir = "."
	}
	queue := hook.NewQueue(charmDir)
	if err := queue.Load(); err != nil {
		return errors.Trace(err)
	}

	dispatchErr := dispatchAll(ctx, c, queue, info)
	if err := queue.Save(); err != nil {
		if dispatchErr == nil {
			return errors.Trace(err)
		}
		logger.Errorf("saving deferred hooks: %v", err)
	}
	return dispatchErr
}

// dispatchAll redelivers queued hooks oldest first, then runs the live
// one. A hook that defers again stays queued; one that completes is
// dropped. A handler error stops redelivery and keeps the failed hook
// and everything behind it queued, since Juju will run the dispatcher
// again after the error is resolved.
func dispatchAll(ctx context.Context, c *charm.Charm, queue *hook.Queue, live hook.Info) error {
	var remaining []hook.Info
	pending := queue.Pending()
	for i, info := range pending {
		ev := charm.NewEvent(info)
		if err := c.Dispatch(ctx, ev); err != nil {
			queue.Replace(append(remaining, pending[i:]...))
			return errors.Annotatef(err, "redelivering deferred hook %q", info.Kind)
		}
		if ev.Deferred() {
			remaining = append(remaining, info)
		}
	}

	ev := charm.NewEvent(live)
	err := c.Dispatch(ctx, ev)
	if err != nil {
		queue.Replace(remaining)
		return errors.Annotatef(err, "running hook %q", live.Kind)
	}
	if ev.Deferred() {
		remaining = append(remaining, live)
	}
	queue.Replace(remaining)
	return nil
}

// setupLogging routes loggo output through juju-log so charm log lines
// land in the model log with the rest of the unit's output.
func setupLogging(tools *hooktool.Context) {
	if _, err := loggo.ReplaceDefaultWriter(hooktool.NewLogWriter(tools)); err != nil {
		fmt.Fprintf(os.Stderr, "nrf-operator: installing log writer: %v\n", err)
	}
	if err := loggo.ConfigureLoggers("<root>=DEBUG"); err != nil {
		fmt.Fprintf(os.Stderr, "nrf-operator: configuring loggers: %v\n", err)
	}
}
