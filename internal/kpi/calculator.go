package kpi

import (
	"fmt"

	"github.com/mobilityroute/routekpi/internal/capacity"
	"github.com/mobilityroute/routekpi/internal/solution"
)

const secondsPerHour = 3600

// scan is the running state threaded through a route's steps.
// advance returns a new value and never mutates its receiver.
type scan struct {
	previousDistance float64
	previousLoad     solution.Load

	totalMiles     float64
	revenueMiles   float64
	emptyMiles     float64
	totalLoadMiles float64

	transitions int
	ambulatory  int
	wheelchair  int
}

// advance folds the segment that ends at current into the scan.
// Occupancy on the segment is the load carried out of the previous step.
func (s scan) advance(current solution.Step, totalCapacity int) scan {
	segmentMiles := MetersToMiles(current.Distance - s.previousDistance)
	s.totalMiles = MetersToMiles(current.Distance)

	if s.previousLoad.Total() != current.Load.Total() {
		s.transitions++
	}

	onboard := s.previousLoad.Total()
	if onboard > 0 {
		s.revenueMiles += segmentMiles * float64(onboard)
	} else {
		s.emptyMiles += segmentMiles
	}

	loadPercentage := float64(onboard) / float64(totalCapacity) * 100
	s.totalLoadMiles += segmentMiles * loadPercentage

	switch current.Type {
	case solution.StepPickup:
		if d := current.Load.Ambulatory() - s.previousLoad.Ambulatory(); d > 0 {
			s.ambulatory += d
		}
		if d := current.Load.Wheelchair() - s.previousLoad.Wheelchair(); d > 0 {
			s.wheelchair += d
		}
	case solution.StepStart, solution.StepDelivery, solution.StepEnd, solution.StepOther:
	}

	s.previousDistance = current.Distance
	s.previousLoad = current.Load
	return s
}

// taskSteps holds the positions of a task's first pickup and delivery, -1 when absent.
type taskSteps struct {
	pickup   int
	delivery int
}

// indexTasks maps each task id to the positions of its pickup and delivery steps.
func indexTasks(steps []solution.Step) map[string]taskSteps {
	index := make(map[string]taskSteps)
	for i, step := range steps {
		if step.ID == "" {
			continue
		}
		if step.Type != solution.StepPickup && step.Type != solution.StepDelivery {
			continue
		}
		entry, ok := index[step.ID]
		if !ok {
			entry = taskSteps{pickup: -1, delivery: -1}
		}
		if step.Type == solution.StepPickup && entry.pickup < 0 {
			entry.pickup = i
		}
		if step.Type == solution.StepDelivery && entry.delivery < 0 {
			entry.delivery = i
		}
		index[step.ID] = entry
	}
	return index
}

func servedTasks(index map[string]taskSteps) int {
	n := 0
	for _, entry := range index {
		if entry.pickup >= 0 && entry.delivery >= 0 {
			n++
		}
	}
	return n
}

func findStep(steps []solution.Step, t solution.StepType) (solution.Step, bool) {
	for _, step := range steps {
		if step.Type == t {
			return step, true
		}
	}
	return solution.Step{}, false
}

// Calculate derives the KPI record of route, the routeIndex-th route of its
// solution. Passengers are attributed from the load increase at each pickup.
// A nil resolver treats every vehicle as unknown.
func Calculate(route solution.Route, routeIndex int, vehicles CapacityResolver) Record {
	var vehicle capacity.VehicleCapacity
	if vehicles != nil {
		vehicle = vehicles.Resolve(string(route.Vehicle))
	}
	if vehicle.TotalCapacity <= 0 {
		vehicle.TotalCapacity = capacity.DefaultTotalCapacity
	}

	steps := route.Steps

	startTime, endTime := UnknownPlaceholder, UnknownPlaceholder
	start, hasStart := findStep(steps, solution.StepStart)
	end, hasEnd := findStep(steps, solution.StepEnd)
	if hasStart {
		startTime = FormatClock(start.Arrival)
	}
	if hasEnd {
		endTime = FormatClock(end.Arrival)
	}

	var actualDuration float64
	if hasStart && hasEnd {
		actualDuration = end.Arrival - start.Arrival
	}

	var waitTime float64
	for _, step := range steps {
		waitTime += step.WaitingTime
	}

	var acc scan
	if len(steps) > 0 {
		acc.previousLoad = steps[0].Load
	}
	for i := 1; i < len(steps); i++ {
		acc = acc.advance(steps[i], vehicle.TotalCapacity)
	}

	var averageLoad float64
	if acc.totalMiles > 0 {
		averageLoad = acc.totalLoadMiles / acc.totalMiles
	}

	totalPassengers := acc.ambulatory + acc.wheelchair

	var passengersPerHour, driveTimePercentage float64
	if actualDuration > 0 {
		hours := actualDuration / secondsPerHour
		passengersPerHour = float64(totalPassengers) / hours
		driveTimePercentage = route.Duration / actualDuration * 100
	}

	vehicleName := string(route.Vehicle)
	if vehicleName == "" {
		vehicleName = UnknownPlaceholder
	}

	return Record{
		RouteIndex:           routeIndex,
		VehicleID:            string(route.Vehicle),
		RouteDescription:     fmt.Sprintf("Route %d - Vehicle %s", routeIndex+1, vehicleName),
		StartTime:            startTime,
		EndTime:              endTime,
		TotalMiles:           Round2(acc.totalMiles),
		RevenueMiles:         Round2(acc.revenueMiles),
		EmptyMiles:           Round2(acc.emptyMiles),
		LoadPercentage:       Round2(averageLoad),
		TotalDuration:        FormatDuration(actualDuration),
		DurationSeconds:      actualDuration,
		DriveTime:            FormatDuration(route.Duration),
		DriveTimeSeconds:     route.Duration,
		DriveTimePercentage:  Round2(driveTimePercentage),
		WaitTime:             FormatDuration(waitTime),
		WaitTimeSeconds:      waitTime,
		VehicleCapacity:      vehicle.TotalCapacity,
		AmbulatoryPassengers: acc.ambulatory,
		WcPassengers:         acc.wheelchair,
		TotalPassengers:      totalPassengers,
		PassengersPerHour:    Round2(passengersPerHour),
		TotalTrips:           acc.transitions,
		ServedTasks:          servedTasks(indexTasks(steps)),
	}
}
