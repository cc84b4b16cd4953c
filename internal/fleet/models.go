// Package fleet runs the KPI calculator over every route of a solution and
// folds the records into a fleet-wide summary.
package fleet

import (
	"github.com/mobilityroute/routekpi/internal/kpi"
	"github.com/mobilityroute/routekpi/internal/solution"
)

// Summary is the fleet-wide fold of a run's KPI records.
type Summary struct {
	TotalRoutes     int `json:"totalRoutes"`
	UnassignedTrips int `json:"unassignedTrips"`
	// TotalTrips sums floor(routeTrips/2) since a boarding and its alighting
	// each count as a transition.
	TotalTrips int `json:"totalTrips"`

	TotalMiles            float64 `json:"totalMiles"`
	TotalRevenueMiles     float64 `json:"totalRevenueMiles"`
	TotalEmptyMiles       float64 `json:"totalEmptyMiles"`
	TotalLoadMiles        float64 `json:"totalLoadMiles"`
	AverageLoadPercentage float64 `json:"averageLoadPercentage"`

	// TotalDuration sums each route's start-to-end span in seconds.
	TotalDuration          float64 `json:"totalDuration"`
	TotalDurationFormatted string  `json:"totalDurationFormatted"`
	TotalDriveTime         float64 `json:"totalDriveTime"`

	TotalAmbulatoryPassengers int     `json:"totalAmbulatoryPassengers"`
	TotalWcPassengers         int     `json:"totalWcPassengers"`
	TotalPassengers           int     `json:"totalPassengers"`
	PassengersPerHour         float64 `json:"passengersPerHour"`

	AverageMilesPerRoute        float64 `json:"averageMilesPerRoute"`
	AverageRevenueMilesPerRoute float64 `json:"averageRevenueMilesPerRoute"`
	AverageEmptyMilesPerRoute   float64 `json:"averageEmptyMilesPerRoute"`
	AveragePassengersPerRoute   float64 `json:"averagePassengersPerRoute"`
}

// Analysis is the result of one run: a record per well-formed route in
// input order, the summary over those records, and the routes left out.
type Analysis struct {
	RunID     string                    `json:"runId"`
	Records   []kpi.Record              `json:"records"`
	Summary   Summary                   `json:"summary"`
	Malformed []solution.MalformedRoute `json:"malformed,omitempty"`
}
