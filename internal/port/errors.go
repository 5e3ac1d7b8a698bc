package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrLoadTimeout     = errors.New("repository load exceeded its time budget")
	ErrProjectNotFound = errors.New("project not found")
	ErrJobNotFound     = errors.New("job not found")
)
