package gimbal

import (
	"sync"
	"time"
)

// fakeTransport is a scriptable Transport: writes are recorded, reads pop
// queued lines and return "" once the queue drains.  It is mutex-guarded so
// tests can feed lines while an exchange is polling.
type fakeTransport struct {
	mu      sync.Mutex
	writes  []string
	lines   []string
	reads   int
	closes  int
	sendErr error
}

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.writes = append(f.writes, string(b))
	return nil
}

func (f *fakeTransport) ReadLine(maxWait time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if len(f.lines) == 0 {
		return "", nil
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) push(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, lines...)
}

func (f *fakeTransport) sentFrames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

func (f *fakeTransport) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// fastOptions keeps the poll loop from slowing tests down
func fastOptions(extra ...Option) []Option {
	opts := []Option{
		WithPollInterval(time.Microsecond),
		WithResponseTimeout(250 * time.Millisecond),
	}
	return append(opts, extra...)
}
