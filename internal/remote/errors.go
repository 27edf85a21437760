package remote

import "errors"

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrNoData      = errors.New("no data at path")
	ErrRejected    = errors.New("update rejected by store")
	ErrClosed      = errors.New("channel closed")
)
