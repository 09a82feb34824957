// Package bridge carries Giiker frames over a line-oriented text link: a
// serial BLE bridge, a capture file or stdin.
//
// Each line holds one frame in hex, optionally tagged with its channel:
//
//	state 12 34 56 78 33 33 33 33 12 34 56 78 9A BC 00 00 13
//	system B5 5A
//
// Untagged lines are state frames. Commands from the host are written back
// as "read" (request a state frame) and "write <hex>" (system command).
// Blank lines and lines starting with '#' are skipped.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/protocol"
)

// Errors
var (
	ErrClosed    = errors.New("bridge: link closed")
	ErrReadOnly  = errors.New("bridge: link is read-only")
	ErrBadLine   = errors.New("bridge: malformed line")
	ErrSubscribe = errors.New("bridge: state already subscribed")
)

// Line channel tags
const (
	TagState  = "state"
	TagSystem = "system"
)

// Transport is a giiker.Transport over a line stream.
type Transport struct {
	r   io.Reader
	w   io.Writer // nil for read-only sources
	c   io.Closer
	log *zap.Logger

	states chan []byte
	closed chan struct{}

	writeMu sync.Mutex

	mu           sync.Mutex
	onState      func([]byte)
	onSystem     func([]byte)
	onDisconnect func(error)
	readErr      error
	closeOnce    sync.Once
}

// New starts reading lines from r. w receives host commands and may be nil;
// c is closed by Close and may be nil.
func New(r io.Reader, w io.Writer, c io.Closer, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Transport{
		r:      r,
		w:      w,
		c:      c,
		log:    log.Named("bridge"),
		states: make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// NewReader is a read-only transport over r, for captures and replays.
func NewReader(r io.Reader, log *zap.Logger) *Transport {
	var c io.Closer
	if rc, ok := r.(io.Closer); ok {
		c = rc
	}
	return New(r, nil, c, log)
}

// ParseLine splits a line into its channel tag and frame bytes. It returns
// an empty tag for lines that carry nothing.
func ParseLine(line string) (string, []byte, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil, nil
	}

	tag := TagState
	if fields := strings.Fields(line); len(fields) > 0 {
		switch strings.ToLower(fields[0]) {
		case TagState, TagSystem:
			tag = strings.ToLower(fields[0])
			line = strings.TrimSpace(line[len(fields[0]):])
		}
	}

	data, err := protocol.ParseHex(line)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadLine, err)
	}
	return tag, data, nil
}

// FormatLine is the inverse of ParseLine.
func FormatLine(tag string, data []byte) string {
	return tag + " " + protocol.FormatHex(data)
}

func (t *Transport) readLoop() {
	defer close(t.states)

	scanner := bufio.NewScanner(t.r)
	for scanner.Scan() {
		tag, data, err := ParseLine(scanner.Text())
		if err != nil {
			t.log.Warn("skipping line", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}

		switch tag {
		case TagState:
			select {
			case t.states <- data:
			case <-t.closed:
				return
			}
		case TagSystem:
			t.mu.Lock()
			fn := t.onSystem
			t.mu.Unlock()
			if fn != nil {
				fn(data)
			}
		}
	}

	t.mu.Lock()
	t.readErr = scanner.Err()
	t.mu.Unlock()
}

// ReadState asks the far end for a state frame and returns the next one
// received. On read-only links it returns the next frame in the stream.
func (t *Transport) ReadState(ctx context.Context) ([]byte, error) {
	if t.w != nil {
		if err := t.writeLine("read"); err != nil {
			return nil, err
		}
	}

	select {
	case data, ok := <-t.states:
		if !ok {
			return nil, t.endErr()
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NotifyState delivers every following state frame to fn, in order, from a
// single goroutine. When the stream ends the disconnect callback runs.
func (t *Transport) NotifyState(fn func([]byte)) error {
	t.mu.Lock()
	if t.onState != nil {
		t.mu.Unlock()
		return ErrSubscribe
	}
	t.onState = fn
	t.mu.Unlock()

	go func() {
		for data := range t.states {
			fn(data)
		}

		t.mu.Lock()
		cb := t.onDisconnect
		t.mu.Unlock()
		if cb != nil {
			cb(t.endErr())
		}
	}()
	return nil
}

// endErr is the reason the stream ended: io.EOF after a clean end.
func (t *Transport) endErr() error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return t.readErr
	}
	return io.EOF
}

// NotifySystem delivers system lines to fn.
func (t *Transport) NotifySystem(fn func([]byte)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSystem = fn
	return nil
}

// StopSystem stops delivering system lines.
func (t *Transport) StopSystem() error {
	return t.NotifySystem(nil)
}

// WriteSystem sends a system command to the far end.
func (t *Transport) WriteSystem(data []byte) error {
	return t.writeLine("write " + protocol.FormatHex(data))
}

func (t *Transport) writeLine(line string) error {
	if t.w == nil {
		return ErrReadOnly
	}
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := io.WriteString(t.w, line+"\n"); err != nil {
		return fmt.Errorf("bridge: write: %w", err)
	}
	return nil
}

// NotifyDisconnect registers fn to run when the stream ends.
func (t *Transport) NotifyDisconnect(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDisconnect = fn
}

// Close stops reading and closes the underlying link.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		if t.c != nil {
			err = t.c.Close()
		}
	})
	return err
}
