package fleet

import (
	"github.com/mobilityroute/routekpi/internal/kpi"
)

// UnassignedTrips converts the solver's unassigned entry count to trips.
// Each unscheduled task appears as a linked pickup and delivery pair.
func UnassignedTrips(entries int) int {
	if entries <= 0 {
		return 0
	}
	return entries / 2
}

// Summarize folds records into a fleet summary.
func Summarize(records []kpi.Record, unassignedEntries int) Summary {
	s := Summary{
		TotalRoutes:     len(records),
		UnassignedTrips: UnassignedTrips(unassignedEntries),
	}

	for _, r := range records {
		s.TotalMiles += r.TotalMiles
		s.TotalRevenueMiles += r.RevenueMiles
		s.TotalEmptyMiles += r.EmptyMiles
		s.TotalLoadMiles += r.TotalMiles * r.LoadPercentage
		s.TotalDuration += r.DurationSeconds
		s.TotalDriveTime += r.DriveTimeSeconds
		s.TotalAmbulatoryPassengers += r.AmbulatoryPassengers
		s.TotalWcPassengers += r.WcPassengers
		s.TotalPassengers += r.TotalPassengers
		s.TotalTrips += r.TotalTrips / 2
	}

	if s.TotalMiles > 0 {
		s.AverageLoadPercentage = s.TotalLoadMiles / s.TotalMiles
	}

	if hours := s.TotalDuration / 3600; hours > 0 {
		s.PassengersPerHour = float64(s.TotalPassengers) / hours
	}

	if n := float64(s.TotalRoutes); n > 0 {
		s.AverageMilesPerRoute = s.TotalMiles / n
		s.AverageRevenueMilesPerRoute = s.TotalRevenueMiles / n
		s.AverageEmptyMilesPerRoute = s.TotalEmptyMiles / n
		s.AveragePassengersPerRoute = float64(s.TotalPassengers) / n
	}

	s.TotalDurationFormatted = kpi.FormatDurationHrsMin(s.TotalDuration)
	return s
}
