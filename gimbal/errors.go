package gimbal

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCommand is generated when an encoded frame would reach the
	// wire without its ';' terminator.  The mnemonic table makes this
	// structurally impossible; the encoder asserts it anyway.
	ErrMalformedCommand = errors.New("gimbal: encoded frame does not end with ';'")

	// ErrMissingResponsePattern is generated when a blocking exchange is
	// requested without a prefix to match the reply against.  This is a
	// caller contract violation, not a device failure.
	ErrMissingResponsePattern = errors.New("gimbal: response awaited without a match prefix")

	// ErrResponseTimeout is generated when the total response deadline
	// elapses before a matching line arrives
	ErrResponseTimeout = errors.New("gimbal: timed out waiting for a matching response")

	// ErrNotImplemented is generated by operations the firmware defines no
	// wire protocol for (controller gains)
	ErrNotImplemented = errors.New("gimbal: operation has no wire protocol")
)

// MalformedResponseError is generated when a response line does not parse
type MalformedResponseError struct {
	Line   string
	Reason string
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("gimbal: malformed response %q: %s", e.Line, e.Reason)
}

// UnknownAxisError is generated when an axis name is not tilt or rot
type UnknownAxisError struct {
	Axis string
}

func (e UnknownAxisError) Error() string {
	return fmt.Sprintf("gimbal: unknown axis %q, valid axes are %q and %q", e.Axis, AxisTilt.String(), AxisRotation.String())
}
