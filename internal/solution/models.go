// Package solution models the output of a vehicle-routing solver and the
// pre-flight checks run against it before KPI analysis.
package solution

import (
	"errors"
	"strconv"
)

// Sentinel errors for solution decoding.
var (
	// ErrNoRoutes indicates the solution does not expose a routes collection.
	ErrNoRoutes = errors.New("solution has no routes collection")
	// ErrInvalidJSON indicates the solution document is not a JSON object.
	ErrInvalidJSON = errors.New("invalid solution document")
)

// StepType is the kind of event a step records.
type StepType int

const (
	// StepOther covers any step type the KPI logic does not act on.
	StepOther StepType = iota
	// StepStart is the vehicle leaving its depot.
	StepStart
	// StepPickup is a task being picked up.
	StepPickup
	// StepDelivery is a task being dropped off.
	StepDelivery
	// StepEnd is the vehicle arriving back at its depot.
	StepEnd
)

// ParseStepType maps a solver step type name to a StepType.
// Unknown names map to StepOther.
func ParseStepType(name string) StepType {
	switch name {
	case "start":
		return StepStart
	case "pickup":
		return StepPickup
	case "delivery":
		return StepDelivery
	case "end":
		return StepEnd
	default:
		return StepOther
	}
}

func (t StepType) String() string {
	switch t {
	case StepStart:
		return "start"
	case StepPickup:
		return "pickup"
	case StepDelivery:
		return "delivery"
	case StepEnd:
		return "end"
	default:
		return "other"
	}
}

// Load is the number of occupants aboard after a step:
// index 0 is ambulatory, index 1 is wheelchair.
type Load [2]int

// Ambulatory returns the ambulatory occupant count.
func (l Load) Ambulatory() int { return l[0] }

// Wheelchair returns the wheelchair occupant count.
func (l Load) Wheelchair() int { return l[1] }

// Total returns the total number of occupants.
func (l Load) Total() int { return l[0] + l[1] }

// VehicleID identifies a vehicle. Solvers emit it as a string or a number;
// both decode to the same string form.
type VehicleID string

// FormatNumericID renders a numeric identifier in its shortest decimal form,
// so 2638, 2638.0 and 2.638e3 all become "2638".
func FormatNumericID(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Step is one event in a route.
type Step struct {
	Type StepType
	// TypeName is the type as the solver reported it.
	TypeName string
	// Arrival is a Unix timestamp in seconds.
	Arrival float64
	// Distance is the cumulative distance in meters up to and including this step.
	Distance float64
	// Load is the occupancy after this step.
	Load Load
	// ID is the task identifier on pickup and delivery steps.
	ID string
	// WaitingTime is the idle time in seconds before this step.
	WaitingTime float64
}

// Route is one vehicle's itinerary.
type Route struct {
	Vehicle VehicleID
	// Duration is the solver-reported drive time in seconds.
	Duration float64
	Steps    []Step

	// Malformed holds the reason the steps could not be read as an ordered
	// sequence. Empty for well-formed routes.
	Malformed string
}

// WellFormed reports whether the route's steps are a proper ordered sequence.
func (r Route) WellFormed() bool {
	return r.Malformed == ""
}

// Solution is the top-level solver output.
type Solution struct {
	Routes []Route
	// Unassigned holds the raw entries the solver could not schedule.
	Unassigned []any
}
