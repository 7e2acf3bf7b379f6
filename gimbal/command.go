// Package gimbal speaks the ASCII serial protocol of a two-axis (tilt and
// rotation) characterization gimbal.  Commands are single mnemonics
// terminated by a semicolon; the two query commands are acknowledged with a
// prefixed response line, setpoint commands are fire-and-forget.
package gimbal

import (
	"strconv"
	"strings"
)

// frameTerminator ends every frame on the wire, in both directions
const frameTerminator = ";"

// Axis is one of the two controlled degrees of freedom
type Axis int

const (
	// AxisTilt is the elevation axis of the gimbal
	AxisTilt Axis = iota

	// AxisRotation is the azimuthal axis of the gimbal
	AxisRotation
)

func (a Axis) String() string {
	switch a {
	case AxisTilt:
		return "tilt"
	case AxisRotation:
		return "rot"
	}
	return "unknown"
}

// ParseAxis maps an axis name to an Axis.  Valid names are "tilt" and "rot",
// case insensitive.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "tilt":
		return AxisTilt, nil
	case "rot", "rotation":
		return AxisRotation, nil
	}
	return Axis(-1), UnknownAxisError{Axis: s}
}

// Mode selects whether a setpoint is a target angle or a delta from the
// current position
type Mode int

const (
	// Absolute setpoints are target angles
	Absolute Mode = iota

	// Relative setpoints are deltas from the current position
	Relative
)

// Op enumerates the operations the firmware understands
type Op int

const (
	// OpGetPosition requests the current tilt and rotation angles
	OpGetPosition Op = iota

	// OpGetState requests the motion state of the device
	OpGetState

	// OpSetAxis commands a new setpoint on one axis
	OpSetAxis

	// OpGetGains would request the feedback controller gains; the firmware
	// defines no frame for it
	OpGetGains

	// OpSetGains would update the feedback controller gains; the firmware
	// defines no frame for it
	OpSetGains
)

// setpointMnemonics maps an axis to its [Absolute, Relative] command words
var setpointMnemonics = map[Axis][2]string{
	AxisTilt:     {"GT", "GTR"},
	AxisRotation: {"GR", "GRR"},
}

// Command is one outbound protocol operation.  Axis, Mode and Value are only
// meaningful when Op is OpSetAxis.
type Command struct {
	Op    Op
	Axis  Axis
	Mode  Mode
	Value float64
}

// formatAngle serializes an angle the same way the decoder parses one back,
// so encoded values round-trip within float precision
func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Encode maps the command onto its wire frame.  Gains operations return
// ErrNotImplemented; any frame that would leave without the ';' terminator
// returns ErrMalformedCommand before it can reach the transport.
func (c Command) Encode() (string, error) {
	var frame string
	switch c.Op {
	case OpGetPosition:
		frame = "RP" + frameTerminator
	case OpGetState:
		frame = "RS" + frameTerminator
	case OpSetAxis:
		words, ok := setpointMnemonics[c.Axis]
		if !ok {
			return "", UnknownAxisError{Axis: strconv.Itoa(int(c.Axis))}
		}
		word := words[0]
		if c.Mode == Relative {
			word = words[1]
		}
		frame = word + "," + formatAngle(c.Value) + frameTerminator
	case OpGetGains, OpSetGains:
		return "", ErrNotImplemented
	default:
		return "", ErrNotImplemented
	}
	if !strings.HasSuffix(frame, frameTerminator) {
		return "", ErrMalformedCommand
	}
	return frame, nil
}
