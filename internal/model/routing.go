package model

import "fmt"

// RouteKind enumerates a route's destination kind.
type RouteKind int

const (
	RouteNone RouteKind = iota
	RouteMaster
	RouteTrack
	RouteExternalInput
)

// Route is one endpoint of a track's routing.
type Route struct {
	Kind    RouteKind
	TrackID int
	InputID string
}

// TrackRouting holds a track's five routing endpoints.
type TrackRouting struct {
	MidiIn       Route
	MidiOut      Route
	AudioIn      Route
	AudioOut     Route
	PreFaderSend Route
}

// RoutingError enumerates a typed routing-edit failure.
type RoutingError struct {
	Code int
	Msg  string
}

func (e *RoutingError) Error() string { return e.Msg }

const (
	RoutingErrSelfRoute    = 1
	RoutingErrMissingTrack = 2
)

// ValidateRoute checks that a track route does not point to itself and that
// any referenced track exists.
func ValidateRoute(selfTrackID int, r Route, trackExists func(int) bool) error {
	if r.Kind != RouteTrack {
		return nil
	}
	if r.TrackID == selfTrackID {
		return &RoutingError{Code: RoutingErrSelfRoute, Msg: fmt.Sprintf("track %d cannot route to itself", selfTrackID)}
	}
	if !trackExists(r.TrackID) {
		return &RoutingError{Code: RoutingErrMissingTrack, Msg: fmt.Sprintf("target track %d does not exist", r.TrackID)}
	}
	return nil
}
