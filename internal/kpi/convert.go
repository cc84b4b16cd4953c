package kpi

import (
	"fmt"
	"math"
	"time"
)

// MetersPerMileFactor converts meters to statute miles.
const MetersPerMileFactor = 0.000621371

// MetersToMiles converts a distance in meters to miles.
func MetersToMiles(meters float64) float64 {
	return meters * MetersPerMileFactor
}

// Round2 rounds v to two decimal places, halves rounding up.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// FormatClock renders a Unix timestamp as a 24-hour UTC clock time, e.g. "11:30".
func FormatClock(unix float64) string {
	sec, frac := math.Modf(unix)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format("15:04")
}

// FormatDuration renders seconds as h:mm, e.g. 3661 -> "1:01".
// Partial minutes are dropped.
func FormatDuration(seconds float64) string {
	h, m := hoursMinutes(seconds)
	return fmt.Sprintf("%d:%02d", h, m)
}

// FormatDurationHrsMin renders seconds as "X HRS Y MN".
func FormatDurationHrsMin(seconds float64) string {
	h, m := hoursMinutes(seconds)
	return fmt.Sprintf("%d HRS %d MN", h, m)
}

func hoursMinutes(seconds float64) (int64, int64) {
	if seconds < 0 || math.IsNaN(seconds) {
		return 0, 0
	}
	s := int64(seconds)
	return s / 3600, (s % 3600) / 60
}
