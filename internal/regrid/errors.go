package regrid

import "errors"

// Fatal setup errors. A pass that hits one returns no grid.
var (
	ErrNoSweeps           = errors.New("volume has no sweeps")
	ErrTooFewRays         = errors.New("volume has fewer than 2 rays")
	ErrAzimuthStep        = errors.New("cannot determine azimuth scan step")
	ErrInconsistentSweeps = errors.New("ray sweep index out of range")
	ErrNoFields           = errors.New("volume has no fields")
	ErrNoGates            = errors.New("volume has no gates")
)

// ErrClosed is returned by Regrid after Close.
var ErrClosed = errors.New("regridder closed")
