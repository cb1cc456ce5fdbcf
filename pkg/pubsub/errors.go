package pubsub

import "errors"

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("pubsub: bus closed")
