package capacity_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilityroute/routekpi/internal/capacity"
)

const rosterJSON = `[
  {"id": "2638", "capacity": [3, 1], "start_index": 0, "end_index": 1, "time_window": [1712489400, 1712500200], "max_working_time": 10800},
  {"id": 2462, "capacity": [8, 2]},
  {"id": "split", "ambulatory_slots": 4, "wc_slots": "2"},
  {"id": "junk", "capacity": ["x", null]},
  {"capacity": [1, 1]}
]`

const rosterCSV = `vehicle_id,start_location_latitude,start_location_longitude,end_location_latitude,end_location_longitude,ambulatory_slots,wc_slots,shift_start,shift_end
2638,26.68488,-80.17861,26.68488,-80.17861,3,1,4/7/2024 5:30:00 AM,4/7/2024 8:30:00 PM
2462,26.68488,-80.17861,26.68488,-80.17861,8,2,4/7/2024 5:30:00 AM,4/7/2024 8:30:00 PM
9999,0,0,0,0,n/a,,,
`

func TestLoadJSON(t *testing.T) {
	vehicles, err := capacity.LoadJSON(strings.NewReader(rosterJSON))
	require.NoError(t, err)
	require.Len(t, vehicles, 4)

	first := vehicles[0]
	assert.Equal(t, "2638", first.ID)
	assert.Equal(t, 3, first.AmbulatorySlots)
	assert.Equal(t, 1, first.WcSlots)
	require.NotNil(t, first.StartIndex)
	assert.Equal(t, 0, *first.StartIndex)
	require.NotNil(t, first.MaxWorkingTime)
	assert.Equal(t, int64(10800), *first.MaxWorkingTime)
	assert.Equal(t, []int64{1712489400, 1712500200}, first.TimeWindow)

	assert.Equal(t, "2462", vehicles[1].ID)
	assert.Equal(t, 4, vehicles[2].AmbulatorySlots)
	assert.Equal(t, 2, vehicles[2].WcSlots)
	assert.Equal(t, 0, vehicles[3].AmbulatorySlots)
	assert.Equal(t, 0, vehicles[3].WcSlots)

	m := capacity.Build(vehicles)
	assert.Equal(t, 4, m["2638"].TotalCapacity)
	assert.Equal(t, 10, m["2462"].TotalCapacity)
	assert.Equal(t, 0, m["junk"].TotalCapacity)
}

func TestLoadJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "vehicles"},
		{"object root", `{"id": "1"}`},
		{"non-object entry", `[{"id": "1"}, 5]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := capacity.LoadJSON(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, capacity.ErrInvalidRoster)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	vehicles, err := capacity.LoadCSV(strings.NewReader(rosterCSV))
	require.NoError(t, err)
	require.Len(t, vehicles, 3)

	assert.Equal(t, "2638", vehicles[0].ID)
	assert.Equal(t, 3, vehicles[0].AmbulatorySlots)
	assert.Equal(t, 1, vehicles[0].WcSlots)
	assert.Equal(t, []int64{1712467800, 1712521800}, vehicles[0].TimeWindow)

	assert.Equal(t, 8, vehicles[1].AmbulatorySlots)

	assert.Equal(t, "9999", vehicles[2].ID)
	assert.Zero(t, vehicles[2].AmbulatorySlots)
	assert.Zero(t, vehicles[2].WcSlots)
	assert.Nil(t, vehicles[2].TimeWindow)
}

func TestLoadCSV_Empty(t *testing.T) {
	_, err := capacity.LoadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, capacity.ErrInvalidRoster)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "vehicles.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(rosterJSON), 0o600))
	m, err := capacity.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Resolve("2638").TotalCapacity)

	csvPath := filepath.Join(dir, "vehicles.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte(rosterCSV), 0o600))
	m, err = capacity.LoadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Resolve("2462").TotalCapacity)

	txtPath := filepath.Join(dir, "vehicles.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = capacity.LoadFile(txtPath)
	assert.ErrorIs(t, err, capacity.ErrUnsupportedFormat)

	_, err = capacity.LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
