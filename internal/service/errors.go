package service

import "errors"

var (
	ErrInvalidID         = errors.New("invalid snowflake")
	ErrInvalidPolicy     = errors.New("invalid policy")
	ErrInvalidCount      = errors.New("invalid count")
	ErrPublisherDisabled = errors.New("event publishing is disabled")
	ErrStorageDisabled   = errors.New("fixture export is disabled")
)
