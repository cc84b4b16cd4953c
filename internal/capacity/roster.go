package capacity

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/mobilityroute/routekpi/internal/solution"
)

// shiftLayout is the timestamp format used by the roster spreadsheet export.
const shiftLayout = "1/2/2006 3:04:05 PM"

// LoadFile reads a roster from path, picking the parser by extension
// (.json or .csv), and builds the capacity Map.
func LoadFile(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	var vehicles []Vehicle
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		vehicles, err = LoadJSON(f)
	case ".csv":
		vehicles, err = LoadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	return Build(vehicles), nil
}

// LoadJSON reads a JSON array of vehicle descriptors. Each descriptor has an
// id and either a two-element capacity pair or split slot fields.
// Malformed slot values read as 0. Entries without an id are skipped.
func LoadJSON(r io.Reader) ([]Vehicle, error) {
	var entries []json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	vehicles := make([]Vehicle, 0, len(entries))
	for i, entry := range entries {
		var fields map[string]any
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: entry %d is not an object", ErrInvalidRoster, i)
		}

		id := idString(fields["id"])
		if id == "" {
			continue
		}

		v := Vehicle{
			ID:             id,
			StartIndex:     optionalInt(fields["start_index"]),
			EndIndex:       optionalInt(fields["end_index"]),
			TimeWindow:     timeWindow(fields["time_window"]),
			MaxWorkingTime: optionalInt64(fields["max_working_time"]),
		}

		if pair, ok := fields["capacity"].([]any); ok {
			if len(pair) > 0 {
				v.AmbulatorySlots = slots(pair[0])
			}
			if len(pair) > 1 {
				v.WcSlots = slots(pair[1])
			}
		} else {
			v.AmbulatorySlots = slots(firstOf(fields, "ambulatory_slots", "ambulatorySlots"))
			v.WcSlots = slots(firstOf(fields, "wc_slots", "wcSlots"))
		}

		vehicles = append(vehicles, v)
	}

	return vehicles, nil
}

type rosterRow struct {
	VehicleID       string `csv:"vehicle_id"`
	AmbulatorySlots string `csv:"ambulatory_slots"`
	WcSlots         string `csv:"wc_slots"`
	ShiftStart      string `csv:"shift_start"`
	ShiftEnd        string `csv:"shift_end"`
}

// LoadCSV reads the roster spreadsheet export (vehicle_id, ambulatory_slots,
// wc_slots, shift_start, shift_end, plus location columns that are ignored).
func LoadCSV(r io.Reader) ([]Vehicle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []rosterRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	vehicles := make([]Vehicle, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.VehicleID)
		if id == "" {
			continue
		}

		v := Vehicle{
			ID:              id,
			AmbulatorySlots: slots(row.AmbulatorySlots),
			WcSlots:         slots(row.WcSlots),
		}

		start, errStart := time.ParseInLocation(shiftLayout, strings.TrimSpace(row.ShiftStart), time.UTC)
		end, errEnd := time.ParseInLocation(shiftLayout, strings.TrimSpace(row.ShiftEnd), time.UTC)
		if errStart == nil && errEnd == nil {
			v.TimeWindow = []int64{start.Unix(), end.Unix()}
		}

		vehicles = append(vehicles, v)
	}

	return vehicles, nil
}

// slots coerces a roster value to a non-negative seat count.
func slots(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(f)
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return solution.FormatNumericID(t)
	default:
		return ""
	}
}

func firstOf(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v
		}
	}
	return nil
}

func optionalInt(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func optionalInt64(v any) *int64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int64(f)
	return &n
}

func timeWindow(v any) []int64 {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return nil
	}
	window := make([]int64, 0, 2)
	for _, p := range pair {
		f, ok := p.(float64)
		if !ok {
			return nil
		}
		window = append(window, int64(f))
	}
	return window
}
