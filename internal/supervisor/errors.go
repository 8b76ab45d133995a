package supervisor

import "errors"

var (
	// ErrLaunch reports that the renderer could not be started or died
	// before it became reachable.
	ErrLaunch = errors.New("renderer launch failed")
	// ErrReadinessTimeout reports that the renderer was started but never
	// accepted a connection during the probe window. The process is left
	// running and the handle stays installed.
	ErrReadinessTimeout = errors.New("renderer readiness timeout")
	// ErrLockedElsewhere reports that another host process owns the renderer.
	ErrLockedElsewhere = errors.New("renderer owned by another process")
)
