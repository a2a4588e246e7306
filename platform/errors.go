package platform

import "errors"

var (
	ErrClusterNotFound = errors.New("platform: cluster not found")
	ErrPENotFound      = errors.New("platform: PE not found")
	ErrBusNotFound     = errors.New("platform: memory bus not found")
	ErrDuplicateID     = errors.New("platform: duplicate ID")
)
