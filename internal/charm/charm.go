// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package charm implements the lifecycle logic of the NRF operator.
// The NRF (Network Repository Function) is the service registry of a
// 5G core: other network functions register with it and discover each
// other through it. The charm's job is to get the NRF workload running
// against a MongoDB database and to hand the NRF's URL to whoever
// relates to it.
package charm

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/pebble/internals/plan"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	core "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/gruyaume/nrf-operator/core/status"
	"github.com/gruyaume/nrf-operator/internal/hook"
	"github.com/gruyaume/nrf-operator/internal/nrfconfig"
	"github.com/gruyaume/nrf-operator/internal/relation/database"
	"github.com/gruyaume/nrf-operator/internal/relation/nrfinfo"
)

var logger = loggo.GetLogger("nrf-operator.charm")

const (
	// ContainerName is the workload container declared in metadata.yaml.
	ContainerName = "nrf"

	serviceName      = "nrf"
	layerLabel       = "nrf"
	configPath       = "/etc/nrf/nrfcfg.yaml"
	databaseName     = "free5gc"
	databaseRelation = "database"
	nrfRelation      = "nrf"
	sbiPort          = 29510
)

// Workload is the part of the pebble-supervised container the charm
// drives.
type Workload interface {
	CanConnect() bool
	Push(path string, content []byte) error
	Exists(path string) (bool, error)
	AddLayer(label string, layer *plan.Layer) error
	Replan() error
	ServiceRunning(name string) bool
}

// StatusSetter reports the unit's workload status back to Juju.
type StatusSetter interface {
	StatusSet(st status.Status, message string) error
}

// RelationClient is the slice of the hook tool context the charm's
// relation wrappers consume.
type RelationClient interface {
	RelationIDs(name string) ([]string, error)
	RelationGet(id, member string, app bool) (map[string]string, error)
	RelationSet(id string, app bool, settings map[string]string) error
	IsLeader() (bool, error)
}

// ServicePatcher fixes up the application's Kubernetes service so the
// NRF's ports are reachable.
type ServicePatcher interface {
	Patch(ctx context.Context) error
}

// Config holds the charm's identity and collaborators.
type Config struct {
	// Application is this charm's application name.
	Application string

	// Model is the name of the model the charm is deployed in, which
	// is also the Kubernetes namespace.
	Model string

	Container Workload
	Status    StatusSetter
	Relations RelationClient
	Patcher   ServicePatcher
}

// Validate returns an error if the charm cannot operate with this
// configuration.
func (config Config) Validate() error {
	if config.Application == "" {
		return errors.NotValidf("empty Application")
	}
	if config.Model == "" {
		return errors.NotValidf("empty Model")
	}
	if config.Container == nil {
		return errors.NotValidf("nil Container")
	}
	if config.Status == nil {
		return errors.NotValidf("nil Status")
	}
	if config.Relations == nil {
		return errors.NotValidf("nil Relations")
	}
	if config.Patcher == nil {
		return errors.NotValidf("nil Patcher")
	}
	return nil
}

// Charm reacts to hook events for one unit of the NRF application.
type Charm struct {
	config   Config
	database *database.Requirer
	nrf      *nrfinfo.Provider
}

// New returns a Charm wired to the given collaborators.
func New(config Config) (*Charm, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Charm{
		config:   config,
		database: database.NewRequirer(config.Relations, databaseRelation, databaseName),
		nrf:      nrfinfo.NewProvider(config.Relations, nrfRelation),
	}, nil
}

// Dispatch runs the handler for the event's hook. Hooks the charm has
// no interest in are acknowledged without doing anything, so that
// dispatch keeps succeeding as Juju's hook surface grows.
func (c *Charm) Dispatch(ctx context.Context, ev *Event) error {
	logger.Debugf("dispatching hook %q", ev.Kind)
	switch ev.Kind {
	case hook.Install, hook.UpgradeCharm:
		return c.patchService(ctx)
	case hook.DatabaseRelationCreated, hook.DatabaseRelationJoined:
		return c.databaseRelationJoined(ev)
	case hook.DatabaseRelationChanged:
		return c.databaseRelationChanged(ev)
	case hook.NRFPebbleReady:
		return c.workloadReady(ev)
	case hook.NRFRelationJoined:
		return c.nrfRelationJoined(ev)
	}
	logger.Debugf("no handler for hook %q", ev.Kind)
	return nil
}

// patchService rewrites the application's Kubernetes service to expose
// the SBI port. Run on install and again on upgrade, since Juju
// recreates the service on refresh.
func (c *Charm) patchService(ctx context.Context) error {
	return errors.Trace(c.config.Patcher.Patch(ctx))
}

// databaseRelationJoined asks the database provider for the NRF's
// database, then drives the workload as far as it can go.
func (c *Charm) databaseRelationJoined(ev *Event) error {
	if err := c.database.PublishRequest(ev.RelationID); err != nil {
		return errors.Trace(err)
	}
	return c.workloadReady(ev)
}

// databaseRelationChanged waits for the provider to publish connection
// URIs, then renders the NRF config against the first URI and pushes it
// into the workload container. Only this path writes the config file.
func (c *Charm) databaseRelationChanged(ev *Event) error {
	creds, created, err := c.database.Credentials(ev.RelationID, ev.RemoteApp)
	if err != nil {
		return errors.Trace(err)
	}
	if !created {
		logger.Debugf("database not created yet on %q", ev.RelationID)
		return c.workloadReady(ev)
	}
	if !c.config.Container.CanConnect() {
		ev.Defer()
		return c.setStatus(status.Waiting, "Waiting for container to be ready")
	}
	databaseURL := strings.SplitN(creds.URIs, ",", 2)[0]
	content, err := nrfconfig.Render(databaseName, databaseURL)
	if err != nil {
		return errors.Trace(err)
	}
	if err := c.config.Container.Push(configPath, []byte(content)); err != nil {
		return errors.Annotatef(err, "writing config file to %q", configPath)
	}
	logger.Infof("config file written to %q", configPath)
	return c.workloadReady(ev)
}

// workloadReady walks the preconditions in order and reports the first
// unmet one as the unit's status. Once all hold it starts the NRF via
// pebble and publishes its URL to every requirer.
func (c *Charm) workloadReady(ev *Event) error {
	created, err := c.database.Created()
	if err != nil {
		return errors.Trace(err)
	}
	if !created {
		return c.setStatus(status.Blocked, "Waiting for database relation to be created")
	}
	if !c.config.Container.CanConnect() {
		ev.Defer()
		return c.setStatus(status.Waiting, "Waiting for container to be ready")
	}
	written, err := c.config.Container.Exists(configPath)
	if err != nil {
		return errors.Trace(err)
	}
	if !written {
		return c.setStatus(status.Waiting, "Waiting for config file to be written")
	}
	if err := c.startWorkload(); err != nil {
		return errors.Trace(err)
	}
	if err := c.setStatus(status.Active, ""); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.nrf.PublishURL(c.url()))
}

// nrfRelationJoined hands the NRF's URL to a newly related requirer.
// Until the NRF service is actually running there is nothing useful to
// publish, so the hook is a no-op; the URL reaches the relation later,
// when workloadReady publishes to all requirers.
func (c *Charm) nrfRelationJoined(ev *Event) error {
	if !c.config.Container.CanConnect() {
		logger.Infof("workload container not ready, not publishing NRF URL")
		return nil
	}
	if !c.config.Container.ServiceRunning(serviceName) {
		logger.Infof("NRF service not started, not publishing NRF URL")
		return nil
	}
	return errors.Trace(c.nrf.PublishURLTo(ev.RelationID, c.url()))
}

// startWorkload installs the pebble layer and replans. AddLayer
// combines by label, so repeating this on every hook is safe and
// replan only restarts the service when the layer changed.
func (c *Charm) startWorkload() error {
	if err := c.config.Container.AddLayer(layerLabel, nrfLayer()); err != nil {
		return errors.Trace(err)
	}
	if err := c.config.Container.Replan(); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (c *Charm) setStatus(st status.Status, message string) error {
	return errors.Trace(c.config.Status.StatusSet(st, message))
}

// url is where other network functions reach the NRF: the cluster DNS
// name of the application's Kubernetes service, on the SBI port.
func (c *Charm) url() string {
	return fmt.Sprintf("http://%s.%s.svc.cluster.local:%d", c.config.Application, c.config.Model, sbiPort)
}

// nrfLayer is the pebble layer supervising the NRF service.
func nrfLayer() *plan.Layer {
	return &plan.Layer{
		Summary:     "nrf layer",
		Description: "pebble config layer for nrf",
		Services: map[string]*plan.Service{
			serviceName: {
				Override: plan.ReplaceOverride,
				Startup:  plan.StartupEnabled,
				Command:  "nrf --nrfcfg /etc/nrf/nrfcfg.yaml",
				Environment: map[string]string{
					"GRPC_GO_LOG_VERBOSITY_LEVEL": "99",
					"GRPC_GO_LOG_SEVERITY_LEVEL":  "info",
					"GRPC_TRACE":                  "all",
					"GRPC_VERBOSITY":              "debug",
					"MANAGED_BY_CONFIG_POD":       "true",
				},
			},
		},
	}
}

// ServicePorts returns the ports the application's Kubernetes service
// must carry for the NRF to be reachable in the cluster.
func ServicePorts() []core.ServicePort {
	return []core.ServicePort{{
		Name:       "sbi",
		Port:       sbiPort,
		TargetPort: intstr.FromInt(sbiPort),
		Protocol:   core.ProtocolTCP,
	}}
}
