package solution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilityroute/routekpi/internal/solution"
)

func TestValidate_AllWellFormed(t *testing.T) {
	sol, err := solution.Parse([]byte(wrappedSolution))
	require.NoError(t, err)

	bad, err := solution.Validate(sol)
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestValidate_ReportsMalformedInOrder(t *testing.T) {
	doc := `{"routes": [
		{"vehicle": "A", "steps": []},
		{"vehicle": "B", "steps": {"0": {}}},
		{"vehicle": 7, "steps": null}
	]}`
	sol, err := solution.Parse([]byte(doc))
	require.NoError(t, err)

	bad, err := solution.Validate(sol)
	require.NoError(t, err)
	require.Len(t, bad, 2)

	assert.Equal(t, solution.MalformedRoute{Index: 1, Vehicle: "B", Reason: "steps is not an array"}, bad[0])
	assert.Equal(t, solution.MalformedRoute{Index: 2, Vehicle: "7", Reason: "steps missing"}, bad[1])
}

func TestValidate_NoRoutes(t *testing.T) {
	_, err := solution.Validate(nil)
	assert.ErrorIs(t, err, solution.ErrNoRoutes)

	_, err = solution.Validate(&solution.Solution{})
	assert.ErrorIs(t, err, solution.ErrNoRoutes)

	bad, err := solution.Validate(&solution.Solution{Routes: []solution.Route{}})
	require.NoError(t, err)
	assert.Empty(t, bad)
}
