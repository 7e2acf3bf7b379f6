package gimbal

import (
	"math"
	"strconv"
	"strings"
)

const (
	// posPrefix marks a position response line
	posPrefix = "POS:"

	// statePrefix marks a state response line
	statePrefix = "STATE:"
)

// Position is a snapshot of the absolute angles of both axes, in degrees
type Position struct {
	Tilt     float64 `json:"tilt"`
	Rotation float64 `json:"rot"`
}

// Status enumerates the motion states of the device.  The wire carries an
// integer: 0 is idle, 1 is moving, and anything else decodes to StatusError,
// so an unknown code can never masquerade as a healthy state.
type Status int

const (
	// StatusIdle means the device is holding position
	StatusIdle Status = iota

	// StatusMoving means at least one axis is slewing to a setpoint
	StatusMoving

	// StatusError covers every state code the firmware did not define
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusMoving:
		return "MOVING"
	}
	return "ERROR"
}

// payloadAfter strips everything through the prefix and the trailing frame
// terminator from a response line
func payloadAfter(line, prefix string) (string, bool) {
	idx := strings.Index(line, prefix)
	if idx < 0 {
		return "", false
	}
	payload := line[idx+len(prefix):]
	payload = strings.TrimRight(strings.TrimSpace(payload), frameTerminator)
	return payload, true
}

func parseAngle(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// ParsePosition decodes a "POS:<tilt>,<rot>;" line into a Position.  Both
// fields must be finite floats; anything else is a MalformedResponseError.
func ParsePosition(line string) (Position, error) {
	payload, ok := payloadAfter(line, posPrefix)
	if !ok {
		return Position{}, MalformedResponseError{Line: line, Reason: "missing " + posPrefix + " prefix"}
	}
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return Position{}, MalformedResponseError{Line: line, Reason: "expected 2 comma-separated fields, got " + strconv.Itoa(len(fields))}
	}
	tilt, err := parseAngle(fields[0])
	if err != nil {
		return Position{}, MalformedResponseError{Line: line, Reason: "tilt field is not a finite float"}
	}
	rot, err := parseAngle(fields[1])
	if err != nil {
		return Position{}, MalformedResponseError{Line: line, Reason: "rotation field is not a finite float"}
	}
	return Position{Tilt: tilt, Rotation: rot}, nil
}

// ParseStatus decodes a "STATE:<n>;" line into a Status.  An out-of-range
// state code is valid input that maps to StatusError; only a payload that is
// not an integer at all fails.
func ParseStatus(line string) (Status, error) {
	payload, ok := payloadAfter(line, statePrefix)
	if !ok {
		return StatusError, MalformedResponseError{Line: line, Reason: "missing " + statePrefix + " prefix"}
	}
	code, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		return StatusError, MalformedResponseError{Line: line, Reason: "state code is not an integer"}
	}
	switch code {
	case 0:
		return StatusIdle, nil
	case 1:
		return StatusMoving, nil
	}
	return StatusError, nil
}
