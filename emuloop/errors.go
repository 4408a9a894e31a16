package emuloop

import "errors"

var (
	// ErrNoSession is returned by operations that need a loaded session.
	ErrNoSession = errors.New("no session loaded")
	// ErrClosed is returned once the scheduler has been closed.
	ErrClosed = errors.New("scheduler closed")
)
