// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package status holds the workload status values a unit may set through
// the status-set hook tool, and the shape Juju reports them in.
package status

// Status is the name of a unit workload status.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

const (
	// Maintenance is set when:
	// The unit is not yet providing services, but is actively doing stuff
	// in preparation for providing those services.
	// This is a "spinning" state, not an error state.
	Maintenance Status = "maintenance"

	// Waiting is set when:
	// The unit is unable to progress to an active state because a
	// precondition it depends on has not been satisfied yet.
	Waiting Status = "waiting"

	// Blocked is set when:
	// The unit needs manual intervention to get back to the Running state.
	Blocked Status = "blocked"

	// Active is set when:
	// The unit believes it is correctly offering all the services it has
	// been asked to offer.
	Active Status = "active"
)

// ValidWorkloadStatus returns true if status has a value a unit is
// allowed to set for itself. status-set rejects everything else.
func ValidWorkloadStatus(status Status) bool {
	switch status {
	case Maintenance, Waiting, Blocked, Active:
		return true
	default:
		return false
	}
}
