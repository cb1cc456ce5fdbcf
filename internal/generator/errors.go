package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weiawesome/disfake/internal/schema"
)

var (
	// ErrIncompleteRecord is matched by *IncompleteRecordError. Seeing it means the
	// engine broke its own contract; it is never an expected runtime condition.
	ErrIncompleteRecord = errors.New("generator: incomplete record")

	// ErrMalformedDescriptor is matched by *DescriptorError.
	ErrMalformedDescriptor = errors.New("generator: malformed descriptor")
)

// IncompleteRecordError lists required fields missing from a generated record.
type IncompleteRecordError struct {
	Struct  string
	Missing []string
}

func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("generator: %s is missing required fields [%s]; this is a bug",
		e.Struct, strings.Join(e.Missing, ", "))
}

func (e *IncompleteRecordError) Is(err error) bool {
	return err == ErrIncompleteRecord
}

// DescriptorError reports a descriptor the engine cannot generate, such as an
// unresolved generic or a stray type parameter.
type DescriptorError struct {
	Path       string
	Descriptor schema.Descriptor
	Reason     string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("generator: %s (%s): %s", e.Path, e.Descriptor, e.Reason)
}

func (e *DescriptorError) Is(err error) bool {
	return err == ErrMalformedDescriptor
}
