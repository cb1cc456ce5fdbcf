package schema

import (
	"errors"
	"fmt"
)

// ErrResolution is matched by every *ResolutionError.
var ErrResolution = errors.New("schema: resolution failed")

// ResolutionError reports generic arguments that cannot be bound to a generic struct.
// It is caller-correctable.
type ResolutionError struct {
	Generic string
	Reason  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("schema: resolve %s: %s", e.Generic, e.Reason)
}

// Is lets errors.Is(err, ErrResolution) match.
func (e *ResolutionError) Is(err error) bool {
	return err == ErrResolution
}

func newResolutionError(g *Generic, format string, args ...any) *ResolutionError {
	return &ResolutionError{Generic: g.String(), Reason: fmt.Sprintf(format, args...)}
}

// IsResolutionError reports whether err is or wraps a ResolutionError.
func IsResolutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ResolutionError
	return errors.As(err, &e) || errors.Is(err, ErrResolution)
}
