package capacity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mobilityroute/routekpi/internal/capacity"
)

func TestBuild(t *testing.T) {
	m := capacity.Build([]capacity.Vehicle{
		{ID: "2638", AmbulatorySlots: 3, WcSlots: 1},
		{ID: "2462", AmbulatorySlots: 8, WcSlots: 2},
		{ID: "bad", AmbulatorySlots: -4, WcSlots: 2},
	})

	assert.Len(t, m, 3)
	assert.Equal(t, 4, m["2638"].TotalCapacity)
	assert.Equal(t, 10, m["2462"].TotalCapacity)
	assert.Equal(t, 0, m["bad"].AmbulatorySlots)
	assert.Equal(t, 2, m["bad"].TotalCapacity)
}

func TestMap_Resolve(t *testing.T) {
	m := capacity.Build([]capacity.Vehicle{
		{ID: "V1", AmbulatorySlots: 3, WcSlots: 1},
		{ID: "empty"},
	})

	tests := []struct {
		name      string
		vehicleID string
		wantTotal int
	}{
		{"known vehicle", "V1", 4},
		{"unknown vehicle", "V9", capacity.DefaultTotalCapacity},
		{"vehicle without seats", "empty", capacity.DefaultTotalCapacity},
		{"empty id", "", capacity.DefaultTotalCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTotal, m.Resolve(tt.vehicleID).TotalCapacity)
		})
	}
}

func TestMap_Resolve_NilMap(t *testing.T) {
	var m capacity.Map
	assert.Equal(t, 1, m.Resolve("anything").TotalCapacity)
}
