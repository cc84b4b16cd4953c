// Package kpi derives per-route efficiency metrics from a solver route.
package kpi

import (
	"github.com/mobilityroute/routekpi/internal/capacity"
)

// UnknownPlaceholder is reported for clock times and vehicles that cannot be determined.
const UnknownPlaceholder = "Unknown"

// CapacityResolver looks up the seating capacity of a vehicle.
type CapacityResolver interface {
	Resolve(vehicleID string) capacity.VehicleCapacity
}

// Record is the KPI record of one route. Mileage and percentage fields are
// rounded to two decimal places.
type Record struct {
	RouteIndex       int    `json:"routeIndex"`
	VehicleID        string `json:"vehicleId"`
	RouteDescription string `json:"routeDescription"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`

	TotalMiles     float64 `json:"totalMiles"`
	RevenueMiles   float64 `json:"revenueMiles"`
	EmptyMiles     float64 `json:"emptyMiles"`
	LoadPercentage float64 `json:"loadPercentage"`

	// TotalDuration is the wall-clock span from start to end.
	TotalDuration       string  `json:"totalDuration"`
	DurationSeconds     float64 `json:"durationSeconds"`
	DriveTime           string  `json:"driveTime"`
	DriveTimeSeconds    float64 `json:"driveTimeSeconds"`
	DriveTimePercentage float64 `json:"driveTimePercentage"`
	WaitTime            string  `json:"waitTime"`
	WaitTimeSeconds     float64 `json:"waitTimeSeconds"`

	VehicleCapacity      int     `json:"vehicleCapacity"`
	AmbulatoryPassengers int     `json:"ambulatoryPassengers"`
	WcPassengers         int     `json:"wcPassengers"`
	TotalPassengers      int     `json:"totalPassengers"`
	PassengersPerHour    float64 `json:"passengersPerHour"`

	// TotalTrips counts step-to-step changes in onboard occupancy.
	TotalTrips int `json:"totalTrips"`
	// ServedTasks counts task ids with both a pickup and a delivery in the route.
	ServedTasks int `json:"servedTasks"`
}
