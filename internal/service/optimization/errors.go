package optimization

import "errors"

// Sentinel errors for the optimization service layer.
var (
	ErrProfileNotFound = errors.New("client profile not found")
	ErrRunNotFound     = errors.New("optimization run not found")
	ErrRunInProgress   = errors.New("an optimization run for this client is already in progress")
	ErrEmptyReport     = errors.New("report file is empty")
)
