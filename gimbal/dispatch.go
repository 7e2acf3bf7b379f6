package gimbal

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pvlab/gimbal/comm"
)

const (
	// defaultReadWait bounds a single transport read while polling for a
	// response line
	defaultReadWait = 100 * time.Millisecond

	// defaultPollEvery paces the poll loop between reads
	defaultPollEvery = 50 * time.Millisecond

	// DefaultResponseTimeout is the total deadline on one blocking exchange;
	// see WithResponseTimeout
	DefaultResponseTimeout = 10 * time.Second
)

// dispatcher serializes one request and its optional response wait.  The
// protocol has no correlation IDs, so overlapping requests could cross-match
// responses; the mutex guarantees at most one frame is in flight.
type dispatcher struct {
	tx comm.Transport
	mu sync.Mutex

	// pace throttles the poll loop so a chatty device does not spin the host
	pace *rate.Limiter

	// readWait bounds a single ReadLine call
	readWait time.Duration

	// timeout is the total deadline on a blocking exchange; zero waits forever
	timeout time.Duration

	log *slog.Logger
}

func newDispatcher(tx comm.Transport, log *slog.Logger) *dispatcher {
	return &dispatcher{
		tx:       tx,
		pace:     rate.NewLimiter(rate.Every(defaultPollEvery), 1),
		readWait: defaultReadWait,
		timeout:  DefaultResponseTimeout,
		log:      log,
	}
}

// exchange writes one frame and, when awaitReply, blocks until a line
// containing wantPrefix arrives.  Lines without the prefix are discarded and
// do not terminate the wait.  Exactly one matched line is consumed per
// request.
func (d *dispatcher) exchange(frame string, awaitReply bool, wantPrefix string) (string, error) {
	if awaitReply && wantPrefix == "" {
		return "", ErrMissingResponsePattern
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.tx.Send([]byte(frame)); err != nil {
		return "", err
	}
	if !awaitReply {
		return "", nil
	}
	var deadline time.Time
	if d.timeout > 0 {
		deadline = time.Now().Add(d.timeout)
	}
	for {
		wait := d.readWait
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return "", ErrResponseTimeout
			}
			if remaining < wait {
				wait = remaining
			}
		}
		line, err := d.tx.ReadLine(wait)
		if err != nil {
			return "", err
		}
		if line != "" && strings.Contains(line, wantPrefix) {
			return line, nil
		}
		if line != "" {
			d.log.Debug("discarded unmatched line", "line", line, "want", wantPrefix)
		}
		if err := d.pace.Wait(context.Background()); err != nil {
			return "", err
		}
	}
}
