package ble

import (
	"bytes"
	"errors"
	"testing"
)

var errNoCommand = errors.New("write without response failed")

// plainWriter only has unacknowledged writes, like a linux characteristic.
type plainWriter struct {
	fail    bool
	written [][]byte
}

func (w *plainWriter) WriteWithoutResponse(p []byte) (int, error) {
	if w.fail {
		return 0, errNoCommand
	}
	w.written = append(w.written, append([]byte(nil), p...))
	return len(p), nil
}

// ackWriter also has acknowledged writes.
type ackWriter struct {
	plainWriter
	ackErr error
	acked  [][]byte
}

func (w *ackWriter) Write(p []byte) (int, error) {
	if w.ackErr != nil {
		return 0, w.ackErr
	}
	w.acked = append(w.acked, append([]byte(nil), p...))
	return len(p), nil
}

func TestWriteCommand(t *testing.T) {
	cmd := []byte{0xB5}

	t.Run("without response", func(t *testing.T) {
		w := &ackWriter{}
		if err := writeCommand(w, cmd); err != nil {
			t.Fatalf("writeCommand error: %v", err)
		}
		if len(w.written) != 1 || !bytes.Equal(w.written[0], cmd) || len(w.acked) != 0 {
			t.Errorf("written = % X acked = % X", w.written, w.acked)
		}
	})

	t.Run("falls back to acknowledged write", func(t *testing.T) {
		w := &ackWriter{plainWriter: plainWriter{fail: true}}
		if err := writeCommand(w, cmd); err != nil {
			t.Fatalf("writeCommand error: %v", err)
		}
		if len(w.acked) != 1 || !bytes.Equal(w.acked[0], cmd) {
			t.Errorf("acked = % X", w.acked)
		}
	})

	t.Run("both fail", func(t *testing.T) {
		w := &ackWriter{plainWriter: plainWriter{fail: true}, ackErr: errors.New("ack failed")}
		if err := writeCommand(w, cmd); !errors.Is(err, errNoCommand) {
			t.Errorf("error = %v, want the first write error", err)
		}
	})

	t.Run("no acknowledged write", func(t *testing.T) {
		w := &plainWriter{fail: true}
		if err := writeCommand(w, cmd); !errors.Is(err, errNoCommand) {
			t.Errorf("error = %v, want %v", err, errNoCommand)
		}
	})
}
