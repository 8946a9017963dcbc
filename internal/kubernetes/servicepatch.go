// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package kubernetes patches the Kubernetes Service Juju creates for the
// application so it exposes the workload's ports. Juju only opens the
// ports it knows about, which for sidecar charms is none; the patch
// replaces the service's port list with the charm's declared ports.
package kubernetes

import (
	"context"
	"reflect"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	core "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/util/retry"
)

var logger = loggo.GetLogger("nrf-operator.kubernetes")

// ServicePatcher rewrites the port list of one Service. The target and
// the ports are fixed at construction; Patch applies them as often as
// it is called.
type ServicePatcher struct {
	client      kubernetes.Interface
	namespace   string
	serviceName string
	ports       []core.ServicePort
}

// NewServicePatcher returns a patcher for the named service. The
// namespace is the model name and the service name is the application
// name: that is where Juju puts the service it manages for the app.
func NewServicePatcher(client kubernetes.Interface, namespace, serviceName string, ports []core.ServicePort) (*ServicePatcher, error) {
	if client == nil {
		return nil, errors.NotValidf("nil kubernetes client")
	}
	if namespace == "" || serviceName == "" {
		return nil, errors.NotValidf("empty namespace or service name")
	}
	if len(ports) == 0 {
		return nil, errors.NotValidf("empty port list")
	}
	return &ServicePatcher{
		client:      client,
		namespace:   namespace,
		serviceName: serviceName,
		ports:       ports,
	}, nil
}

// NewInClusterPatcher returns a patcher using the pod's service account,
// which is how a sidecar charm reaches its own cluster.
func NewInClusterPatcher(namespace, serviceName string, ports []core.ServicePort) (*ServicePatcher, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, errors.Annotate(err, "loading in-cluster kubernetes config")
	}
	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewServicePatcher(client, namespace, serviceName, ports)
}

// Patch replaces the service's ports with the patcher's port list. A
// service already carrying exactly those ports is left untouched, so
// the call is safe to repeat on every install and upgrade.
func (p *ServicePatcher) Patch(ctx context.Context) error {
	services := p.client.CoreV1().Services(p.namespace)
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		service, err := services.Get(ctx, p.serviceName, meta.GetOptions{})
		if err != nil {
			return err
		}
		if reflect.DeepEqual(service.Spec.Ports, p.ports) {
			return nil
		}
		service.Spec.Ports = p.ports
		_, err = services.Update(ctx, service, meta.UpdateOptions{})
		return err
	})
	if err != nil {
		return errors.Annotatef(err, "patching service %q in namespace %q", p.serviceName, p.namespace)
	}
	logger.Infof("service %q patched with %d port(s)", p.serviceName, len(p.ports))
	return nil
}

// IsPatched reports whether the service currently carries exactly the
// patcher's port list. A missing service is simply not patched.
func (p *ServicePatcher) IsPatched(ctx context.Context) (bool, error) {
	service, err := p.client.CoreV1().Services(p.namespace).Get(ctx, p.serviceName, meta.GetOptions{})
	if k8serrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	return reflect.DeepEqual(service.Spec.Ports, p.ports), nil
}
