// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package workload gives the charm a handle on its sidecar container
// through the Pebble API. Juju mounts one Pebble socket per container
// under /charm/containers, and everything the charm does to the workload
// (files, layers, service state) goes through that socket.
package workload

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/canonical/pebble/client"
	"github.com/canonical/pebble/internals/plan"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

const socketPathFormat = "/charm/containers/%s/pebble.socket"

// PebbleClient is the slice of the Pebble client API the container
// handle relies on.
type PebbleClient interface {
	SysInfo() (*client.SysInfo, error)
	Push(opts *client.PushOptions) error
	ListFiles(opts *client.ListFilesOptions) ([]*client.FileInfo, error)
	AddLayer(opts *client.AddLayerOptions) error
	Replan(opts *client.ServiceOptions) (string, error)
	WaitChange(changeID string, opts *client.WaitChangeOptions) (*client.Change, error)
	Services(opts *client.ServicesOptions) ([]*client.ServiceInfo, error)
}

// Container is a workload container handle.
type Container struct {
	name   string
	pebble PebbleClient
}

// NewContainer returns a handle on the named sidecar container, talking
// to the Pebble socket Juju mounts for it. Construction does not dial
// the socket; reachability is CanConnect's business.
func NewContainer(name string) (*Container, error) {
	pebble, err := client.New(&client.Config{
		Socket: fmt.Sprintf(socketPathFormat, name),
	})
	if err != nil {
		return nil, errors.Annotatef(err, "creating pebble client for container %q", name)
	}
	return &Container{name: name, pebble: pebble}, nil
}

// NewContainerWithClient returns a handle backed by the given client.
func NewContainerWithClient(name string, pebble PebbleClient) *Container {
	return &Container{name: name, pebble: pebble}
}

// Name returns the container name.
func (c *Container) Name() string {
	return c.name
}

// CanConnect reports whether the Pebble daemon in the container is
// answering. Any failure means "not yet", never a hard error: the
// container may simply not have started.
func (c *Container) CanConnect() bool {
	_, err := c.pebble.SysInfo()
	return err == nil
}

// Push writes content to path inside the container, creating parent
// directories as needed and overwriting whatever was there.
func (c *Container) Push(path string, content []byte) error {
	err := c.pebble.Push(&client.PushOptions{
		Source:   bytes.NewReader(content),
		Path:     path,
		MakeDirs: true,
	})
	return errors.Annotatef(err, "pushing %s to container %q", path, c.name)
}

// Exists reports whether path exists inside the container.
func (c *Container) Exists(path string) (bool, error) {
	_, err := c.pebble.ListFiles(&client.ListFilesOptions{
		Path:   path,
		Itself: true,
	})
	if err != nil {
		var clientErr *client.Error
		if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, errors.Annotatef(err, "stating %s in container %q", path, c.name)
	}
	return true, nil
}

// AddLayer submits layer under the given label, merging with any
// existing layer of the same label. Pebble combines service entries by
// name, which is what keeps repeated submissions idempotent.
func (c *Container) AddLayer(label string, layer *plan.Layer) error {
	data, err := yaml.Marshal(layer)
	if err != nil {
		return errors.Trace(err)
	}
	err = c.pebble.AddLayer(&client.AddLayerOptions{
		Combine:   true,
		Label:     label,
		LayerData: data,
	})
	return errors.Annotatef(err, "adding layer %q to container %q", label, c.name)
}

// Replan asks Pebble to converge running services on the current plan
// and waits for the resulting change to finish.
func (c *Container) Replan() error {
	changeID, err := c.pebble.Replan(&client.ServiceOptions{})
	if err != nil {
		return errors.Annotatef(err, "replanning container %q", c.name)
	}
	change, err := c.pebble.WaitChange(changeID, nil)
	if err != nil {
		return errors.Annotatef(err, "waiting for replan of container %q", c.name)
	}
	if change.Err != "" {
		return errors.Errorf("replan of container %q failed: %s", c.name, change.Err)
	}
	return nil
}

// ServiceRunning reports whether the named Pebble service is currently
// active. An unreachable daemon or an undeclared service is "not
// running", not an error.
func (c *Container) ServiceRunning(name string) bool {
	services, err := c.pebble.Services(&client.ServicesOptions{
		Names: []string{name},
	})
	if err != nil {
		return false
	}
	for _, service := range services {
		if service.Name == name {
			return service.Current == client.StatusActive
		}
	}
	return false
}
