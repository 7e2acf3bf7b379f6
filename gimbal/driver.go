package gimbal

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pvlab/gimbal/comm"
)

// Gains holds the feedback controller (PID) gains.  The firmware defines no
// frame for reading or writing them; the type exists so the operations have
// a signature to fail loudly with.
type Gains struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
}

// Setpoint carries the optional per-axis targets of a SetPosition call.
// Pointer fields make "absent" explicit, so a legitimate zero-degree target
// is never mistaken for an omitted one.
type Setpoint struct {
	Tilt     *float64 `json:"tilt"`
	Rotation *float64 `json:"rot"`
	Relative bool     `json:"relative"`
}

// Driver is the bridge to one gimbal.  It owns its Transport exclusively
// from construction until Close.  All operations are synchronous; the two
// query operations block until the device acknowledges or the response
// deadline elapses.
type Driver struct {
	disp *dispatcher
	tx   comm.Transport
	log  *slog.Logger

	closeMu sync.Mutex
	closed  bool
}

// Option customizes a Driver at construction
type Option func(*Driver)

// WithLogger attaches a structured logger to the driver.  The protocol
// engine logs discarded lines and no-op setpoints at debug level; it never
// writes to the console directly.
func WithLogger(log *slog.Logger) Option {
	return func(d *Driver) {
		if log != nil {
			d.log = log
		}
	}
}

// WithResponseTimeout sets the total deadline on one blocking exchange.
// Zero disables the deadline; queries then wait indefinitely, bounded only
// by the transport's per-read wait.
func WithResponseTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.disp.timeout = timeout
	}
}

// WithPollInterval sets the pacing of the response poll loop
func WithPollInterval(every time.Duration) Option {
	return func(d *Driver) {
		if every > 0 {
			d.disp.pace.SetLimit(rate.Every(every))
		}
	}
}

// New returns a Driver over an already-open transport
func New(tx comm.Transport, opts ...Option) *Driver {
	d := &Driver{
		tx:  tx,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	d.disp = newDispatcher(tx, d.log)
	for _, opt := range opts {
		opt(d)
	}
	d.disp.log = d.log
	return d
}

// Open connects to the gimbal at addr and returns a Driver bound to it.
// addr is a serial port path when isSerial is true, otherwise host:port.
func Open(addr string, isSerial bool, opts ...Option) (*Driver, error) {
	dev := comm.NewDevice(addr, isSerial)
	if err := dev.Open(); err != nil {
		return nil, err
	}
	return New(dev, opts...), nil
}

// GetPosition retrieves the current absolute tilt and rotation angles in
// degrees
func (d *Driver) GetPosition() (Position, error) {
	frame, err := Command{Op: OpGetPosition}.Encode()
	if err != nil {
		return Position{}, err
	}
	line, err := d.disp.exchange(frame, true, posPrefix)
	if err != nil {
		return Position{}, err
	}
	return ParsePosition(line)
}

// GetState retrieves the motion state of the device
func (d *Driver) GetState() (Status, error) {
	frame, err := Command{Op: OpGetState}.Encode()
	if err != nil {
		return StatusError, err
	}
	line, err := d.disp.exchange(frame, true, statePrefix)
	if err != nil {
		return StatusError, err
	}
	return ParseStatus(line)
}

// SetPosition sends new setpoints for whichever axes the Setpoint names,
// tilt first.  Setpoint frames are fire-and-forget; the firmware sends no
// acknowledgment.  A Setpoint naming neither axis is a no-op by contract:
// nothing is written and nil is returned.
func (d *Driver) SetPosition(sp Setpoint) error {
	if sp.Tilt == nil && sp.Rotation == nil {
		d.log.Debug("setpoint names no axes, nothing to do")
		return nil
	}
	mode := Absolute
	if sp.Relative {
		mode = Relative
	}
	if sp.Tilt != nil {
		if err := d.setAxis(AxisTilt, *sp.Tilt, mode); err != nil {
			return err
		}
	}
	if sp.Rotation != nil {
		if err := d.setAxis(AxisRotation, *sp.Rotation, mode); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) setAxis(axis Axis, value float64, mode Mode) error {
	frame, err := Command{Op: OpSetAxis, Axis: axis, Mode: mode, Value: value}.Encode()
	if err != nil {
		return err
	}
	_, err = d.disp.exchange(frame, false, "")
	return err
}

// GetPos gets the current position of one axis in degrees.  The wire
// protocol only reports both axes at once, so this queries both and selects.
func (d *Driver) GetPos(axis string) (float64, error) {
	ax, err := ParseAxis(axis)
	if err != nil {
		return 0, err
	}
	pos, err := d.GetPosition()
	if err != nil {
		return 0, err
	}
	if ax == AxisTilt {
		return pos.Tilt, nil
	}
	return pos.Rotation, nil
}

// MoveAbs commands an axis to an absolute angle in degrees
func (d *Driver) MoveAbs(axis string, pos float64) error {
	ax, err := ParseAxis(axis)
	if err != nil {
		return err
	}
	return d.setAxis(ax, pos, Absolute)
}

// MoveRel commands an axis to move an incremental angle in degrees
func (d *Driver) MoveRel(axis string, delta float64) error {
	ax, err := ParseAxis(axis)
	if err != nil {
		return err
	}
	return d.setAxis(ax, delta, Relative)
}

// GetControllerGains would retrieve the PID gains; the firmware defines no
// frame for it, so it always fails with ErrNotImplemented
func (d *Driver) GetControllerGains() (Gains, error) {
	return Gains{}, ErrNotImplemented
}

// SetControllerGains would update the PID gains; the firmware defines no
// frame for it, so it always fails with ErrNotImplemented
func (d *Driver) SetControllerGains(g Gains) error {
	return ErrNotImplemented
}

// Close releases the transport.  Close is idempotent: the second and later
// calls return nil without touching the transport again.
func (d *Driver) Close() error {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.tx.Close()
}

var _ io.Closer = (*Driver)(nil)
