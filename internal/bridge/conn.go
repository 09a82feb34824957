package bridge

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Conn is the byte link under a Transport.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// DefaultBaud is the default serial speed of a bridge.
const DefaultBaud = 115200

// OpenSerial opens a serial bridge.
func OpenSerial(portName string, baudRate int) (Conn, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return port, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// wsConn adapts a websocket to a line stream: each text message is one line.
type wsConn struct {
	conn *websocket.Conn
	buf  []byte
}

func (w *wsConn) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		w.buf = append(data, '\n')
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsConn) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if err := w.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *wsConn) Close() error {
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

// DialWebSocket connects to a websocket bridge.
func DialWebSocket(ctx context.Context, wsURL string) (Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	return &wsConn{conn: conn}, nil
}

// Open opens a transport by target:
//
//	ws://host/path     websocket bridge
//	path/to/capture    capture file, read-only
//	/dev/ttyUSB0, COM3 serial bridge at baud
//
// A target of "-" reads frames from stdin, read-only.
func Open(ctx context.Context, target string, baud int, log *zap.Logger) (*Transport, error) {
	switch {
	case target == "-":
		return New(os.Stdin, nil, nil, log), nil

	case strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://"):
		conn, err := DialWebSocket(ctx, target)
		if err != nil {
			return nil, err
		}
		return New(conn, conn, conn, log), nil
	}

	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		f, err := os.Open(target)
		if err != nil {
			return nil, fmt.Errorf("failed to open capture: %w", err)
		}
		return NewReader(f, log), nil
	}

	if baud <= 0 {
		baud = DefaultBaud
	}
	conn, err := OpenSerial(target, baud)
	if err != nil {
		return nil, err
	}
	return New(conn, conn, conn, log), nil
}
