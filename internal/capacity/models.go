// Package capacity builds the vehicle seating lookup used by the KPI
// calculator from a vehicle roster.
package capacity

import (
	"errors"
)

// DefaultTotalCapacity is substituted for vehicles that are missing from
// the roster or report no seats, so load percentages stay well defined.
const DefaultTotalCapacity = 1

// Sentinel errors for roster loading.
var (
	// ErrInvalidRoster indicates the roster could not be parsed.
	ErrInvalidRoster = errors.New("invalid vehicle roster")
	// ErrUnsupportedFormat indicates the roster file extension is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported roster format")
)

// Vehicle is one roster entry as the loaders read it.
type Vehicle struct {
	ID              string
	AmbulatorySlots int
	WcSlots         int

	// Scheduling attributes carried through from the roster.
	StartIndex     *int
	EndIndex       *int
	TimeWindow     []int64
	MaxWorkingTime *int64
}

// VehicleCapacity holds the seating limits of one vehicle.
type VehicleCapacity struct {
	AmbulatorySlots int `json:"ambulatorySlots"`
	WcSlots         int `json:"wcSlots"`
	TotalCapacity   int `json:"totalCapacity"`

	StartIndex     *int    `json:"start_index,omitempty"`
	EndIndex       *int    `json:"end_index,omitempty"`
	TimeWindow     []int64 `json:"time_window,omitempty"`
	MaxWorkingTime *int64  `json:"max_working_time,omitempty"`
}

// Map looks up vehicle capacity by vehicle identifier.
type Map map[string]VehicleCapacity

// Build creates a Map from roster entries. Later entries with the same
// identifier replace earlier ones.
func Build(vehicles []Vehicle) Map {
	m := make(Map, len(vehicles))
	for _, v := range vehicles {
		amb := nonNegative(v.AmbulatorySlots)
		wc := nonNegative(v.WcSlots)
		m[v.ID] = VehicleCapacity{
			AmbulatorySlots: amb,
			WcSlots:         wc,
			TotalCapacity:   amb + wc,
			StartIndex:      v.StartIndex,
			EndIndex:        v.EndIndex,
			TimeWindow:      v.TimeWindow,
			MaxWorkingTime:  v.MaxWorkingTime,
		}
	}
	return m
}

// Resolve returns the capacity of the vehicle. Unknown vehicles, and
// vehicles with no seats at all, resolve to DefaultTotalCapacity.
func (m Map) Resolve(vehicleID string) VehicleCapacity {
	c, ok := m[vehicleID]
	if !ok {
		return VehicleCapacity{TotalCapacity: DefaultTotalCapacity}
	}
	if c.TotalCapacity <= 0 {
		c.TotalCapacity = DefaultTotalCapacity
	}
	return c
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
