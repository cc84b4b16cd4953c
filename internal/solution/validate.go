package solution

// MalformedRoute describes a route whose steps are not a proper ordered sequence.
type MalformedRoute struct {
	Index   int       `json:"index"`
	Vehicle VehicleID `json:"vehicle"`
	Reason  string    `json:"reason"`
}

// Validate returns the routes of s whose steps are not a proper ordered
// sequence, in input order. It does not inspect individual step fields.
// A nil solution or one without a routes collection yields ErrNoRoutes.
func Validate(s *Solution) ([]MalformedRoute, error) {
	if s == nil || s.Routes == nil {
		return nil, ErrNoRoutes
	}

	var bad []MalformedRoute
	for i, route := range s.Routes {
		if route.WellFormed() {
			continue
		}
		bad = append(bad, MalformedRoute{
			Index:   i,
			Vehicle: route.Vehicle,
			Reason:  route.Malformed,
		})
	}
	return bad, nil
}
