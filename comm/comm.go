/*Package comm provides line-oriented communication with remote hardware.

The protocol engines in this repository speak newline-delimited ASCII over
either a serial port or a TCP socket (e.g. a serial device behind a terminal
server).  Package comm hides which of the two is in use behind the Transport
interface:

	dev := comm.NewDevice("/dev/ttyACM0", true)
	err := dev.Open()
	if err != nil {
		// ...
	}
	defer dev.Close()
	err = dev.Send([]byte("RP;"))
	line, err := dev.ReadLine(time.Second)

ReadLine has a bounded per-call wait; it returns an empty string and a nil
error if no complete line arrived within that window, so callers can poll
without blocking forever on a silent device.
*/
package comm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

const (
	// DefaultBaud is the baud rate used when a Device does not specify one.
	DefaultBaud = 9600

	// lineTerminator delimits inbound lines from the remote
	lineTerminator = byte('\n')
)

var (
	// ErrNotConnected is generated when Send or ReadLine is called before Open
	ErrNotConnected = errors.New("comm: not connected to remote")
)

// Sender can transmit a raw frame to the remote
type Sender interface {
	Send([]byte) error
}

// LineReader can receive one terminated line from the remote.  maxWait bounds
// a single call; a non-positive maxWait blocks until a line arrives.  An
// elapsed wait yields ("", nil), not an error.
type LineReader interface {
	ReadLine(maxWait time.Duration) (string, error)
}

// Transport is the capability set a protocol engine consumes: write a frame,
// read one line with a bounded wait, and release the channel.
type Transport interface {
	Sender
	LineReader
	io.Closer
}

type readResult struct {
	line string
	err  error
}

// Device is a Transport over a serial port or TCP socket.  A Device is owned
// by exactly one driver; it is not safe for use by multiple drivers at once.
type Device struct {
	// Addr is the port path (serial) or host:port (TCP) of the remote
	Addr string

	// IsSerial selects a serial port (true) or TCP (false) connection
	IsSerial bool

	// Baud is the serial baud rate; DefaultBaud when zero
	Baud int

	mu     sync.Mutex
	conn   io.ReadWriteCloser
	lines  chan readResult
	done   chan struct{}
	closed bool
}

// NewDevice returns a Device which is not yet connected
func NewDevice(addr string, isSerial bool) *Device {
	return &Device{Addr: addr, IsSerial: isSerial}
}

func (d *Device) serialConf() *serial.Config {
	baud := d.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	return &serial.Config{
		Name:        d.Addr,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 1 * time.Second}
}

// Open establishes the connection and starts the background line reader.
// Opens are retried with exponential backoff; some USB serial bridges reject
// a connection attempt made too soon after the device enumerates.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return nil
	}
	op := func() error {
		return d.open()
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err != nil {
		return fmt.Errorf("comm: unable to connect to %s: %w", d.Addr, err)
	}
	d.closed = false
	// capacity 1 so the reader goroutine can deposit its final error and
	// exit even if nobody is waiting in ReadLine
	d.lines = make(chan readResult, 1)
	d.done = make(chan struct{})
	go d.readLines(d.conn, d.lines, d.done)
	return nil
}

func (d *Device) open() error {
	var (
		conn io.ReadWriteCloser
		err  error
	)
	if d.IsSerial {
		conn, err = serial.OpenPort(d.serialConf())
	} else {
		conn, err = TCPSetup(d.Addr, 3*time.Second)
	}
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

// readLines pumps complete lines from the connection until it errors or is
// closed.  Running the read in one long-lived goroutine keeps a partially
// received line intact across ReadLine calls that give up waiting.
func (d *Device) readLines(conn io.Reader, out chan<- readResult, done <-chan struct{}) {
	rdr := bufio.NewReader(conn)
	for {
		line, err := rdr.ReadString(lineTerminator)
		if err != nil {
			// non-blocking: if a buffered line is still unread, the closed
			// channel tells the receiver the stream ended
			select {
			case out <- readResult{err: err}:
			default:
			}
			close(out)
			return
		}
		select {
		case out <- readResult{line: strings.TrimRight(line, "\r\n")}:
		case <-done:
			// Close was called with lines still undelivered
			return
		}
	}
}

// Send writes one frame to the remote
func (d *Device) Send(b []byte) error {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	_, err := conn.Write(b)
	return err
}

// ReadLine returns the next line from the remote with the terminator
// stripped.  If no line arrives within maxWait, it returns ("", nil).
func (d *Device) ReadLine(maxWait time.Duration) (string, error) {
	d.mu.Lock()
	lines := d.lines
	d.mu.Unlock()
	if lines == nil {
		return "", ErrNotConnected
	}
	if maxWait <= 0 {
		res, ok := <-lines
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case res, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	case <-timer.C:
		return "", nil
	}
}

// Close releases the connection.  Close is idempotent; a second call does
// not attempt a second release.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.conn == nil {
		return nil
	}
	d.closed = true
	err := d.conn.Close()
	d.conn = nil
	d.lines = nil
	close(d.done)
	d.done = nil
	return err
}

// TCPSetup opens a new TCP connection and sets a timeout on connect
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, timeout)
}
