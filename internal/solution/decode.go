package solution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Decode reads a solver solution from r.
func Decode(r io.Reader) (*Solution, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	return Parse(data)
}

// Parse decodes a solver solution. Both the bare {routes, unassigned} shape
// and the same object nested under a "result" key are accepted.
func Parse(data []byte) (*Solution, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if inner, ok := doc["result"]; ok && isObject(inner) {
		doc = nil
		if err := json.Unmarshal(inner, &doc); err != nil {
			return nil, fmt.Errorf("%w: result: %v", ErrInvalidJSON, err)
		}
	}

	rawRoutes, ok := doc["routes"]
	if !ok || isNull(rawRoutes) {
		return nil, ErrNoRoutes
	}
	if !isArray(rawRoutes) {
		return nil, fmt.Errorf("%w: routes is not an array", ErrNoRoutes)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawRoutes, &elems); err != nil {
		return nil, fmt.Errorf("%w: routes: %v", ErrInvalidJSON, err)
	}

	sol := &Solution{Routes: make([]Route, 0, len(elems))}
	for _, elem := range elems {
		sol.Routes = append(sol.Routes, decodeRoute(elem))
	}

	if rawUnassigned, ok := doc["unassigned"]; ok && isArray(rawUnassigned) {
		if err := json.Unmarshal(rawUnassigned, &sol.Unassigned); err != nil {
			return nil, fmt.Errorf("%w: unassigned: %v", ErrInvalidJSON, err)
		}
	}

	return sol, nil
}

type rawRoute struct {
	Vehicle  json.RawMessage `json:"vehicle"`
	Duration json.RawMessage `json:"duration"`
	Steps    json.RawMessage `json:"steps"`
}

type rawStep struct {
	Type        json.RawMessage `json:"type"`
	Arrival     json.RawMessage `json:"arrival"`
	Distance    json.RawMessage `json:"distance"`
	Load        json.RawMessage `json:"load"`
	ID          json.RawMessage `json:"id"`
	WaitingTime json.RawMessage `json:"waiting_time"`
}

// decodeRoute never fails: a route whose steps cannot be read as a sequence
// is recorded on Route.Malformed. Individual steps are not validated.
func decodeRoute(data json.RawMessage) Route {
	if !isObject(data) {
		return Route{Malformed: "route is not an object"}
	}

	var raw rawRoute
	if err := json.Unmarshal(data, &raw); err != nil {
		return Route{Malformed: "route is not an object"}
	}

	route := Route{
		Vehicle:  VehicleID(scalarString(raw.Vehicle)),
		Duration: number(raw.Duration),
	}

	switch {
	case len(raw.Steps) == 0 || isNull(raw.Steps):
		route.Malformed = "steps missing"
		return route
	case !isArray(raw.Steps):
		route.Malformed = "steps is not an array"
		return route
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw.Steps, &elems); err != nil {
		route.Malformed = "steps is not an array"
		return route
	}

	route.Steps = make([]Step, 0, len(elems))
	for _, elem := range elems {
		route.Steps = append(route.Steps, decodeStep(elem))
	}

	return route
}

// decodeStep defaults every missing or mistyped field to its zero value.
// An element that is not an object decodes as a zero StepOther.
func decodeStep(data json.RawMessage) Step {
	if !isObject(data) {
		return Step{}
	}

	var raw rawStep
	if err := json.Unmarshal(data, &raw); err != nil {
		return Step{}
	}

	var typeName string
	_ = json.Unmarshal(raw.Type, &typeName) //nolint:errcheck // non-string types fall through to StepOther

	return Step{
		Type:        ParseStepType(typeName),
		TypeName:    typeName,
		Arrival:     number(raw.Arrival),
		Distance:    number(raw.Distance),
		Load:        decodeLoad(raw.Load),
		ID:          scalarString(raw.ID),
		WaitingTime: number(raw.WaitingTime),
	}
}

func decodeLoad(data json.RawMessage) Load {
	var load Load
	if !isArray(data) {
		return load
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return load
	}

	for i := 0; i < len(load) && i < len(elems); i++ {
		if v := number(elems[i]); v > 0 {
			load[i] = int(v)
		}
	}
	return load
}

// number returns the JSON number in data, or 0 for anything else.
func number(data json.RawMessage) float64 {
	if len(data) == 0 {
		return 0
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// scalarString renders a JSON string or number as a string.
// Anything else yields "".
func scalarString(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return FormatNumericID(f)
	}
	return ""
}

func isNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func isArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
