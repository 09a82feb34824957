package giiker

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SeamusWaldron/giiker_ble_library/internal/protocol"
)

// Transport carries frames between a Session and a cube. Implementations
// exist for BLE (internal/ble) and for line-oriented bridges
// (internal/bridge); tests use an in-memory fake.
type Transport interface {
	// ReadState reads the current full state frame.
	ReadState(ctx context.Context) ([]byte, error)

	// NotifyState subscribes fn to state notifications. Frames must be
	// delivered in the order the device sent them.
	NotifyState(fn func([]byte)) error

	// NotifySystem subscribes fn to replies on the system channel.
	NotifySystem(fn func([]byte)) error

	// StopSystem ends the system channel subscription.
	StopSystem() error

	// WriteSystem writes a command to the system channel.
	WriteSystem(data []byte) error

	// NotifyDisconnect registers fn to be called once when the link drops.
	NotifyDisconnect(fn func(error))

	// Close tears the link down.
	Close() error
}

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnected
	StateDisconnected
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Frame describes one processed state notification.
type Frame struct {
	Data []byte    // Raw notification bytes
	Time time.Time // Arrival time
	Move *Move     // Emitted move, if any
	Err  error     // Why the frame was rejected or a move dropped, if at all
}

// Session holds the state of one connected cube. It applies every incoming
// frame in arrival order, keeps the latest valid snapshot and emits one move
// per frame that carries one.
//
//	s := giiker.NewSession(transport)
//	s.OnMove(func(m giiker.Move) {
//	    fmt.Println("Move:", m.Notation())
//	})
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
type Session struct {
	transport Transport
	config    *config
	log       *zap.Logger

	// applyMu serializes frame handling so callbacks fire in frame order.
	applyMu sync.Mutex
	startMu sync.Mutex

	mu          sync.RWMutex
	state       SessionState
	raw         RawState
	visible     VisibleState
	moveHistory []Move

	// Callbacks
	onMove       func(Move)
	onDisconnect func(error)
	onError      func(error)
	onFrame      func(Frame)

	battery        chan struct{} // one-slot semaphore for BatteryLevel
	done           chan struct{}
	disconnectOnce sync.Once
	disconnectErr  error
}

// NewSession creates an idle session over t.
func NewSession(t Transport, opts ...Option) *Session {
	cfg := newConfig(opts)
	return &Session{
		transport: t,
		config:    cfg,
		log:       cfg.logger,
		state:     StateIdle,
		battery:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Event callbacks

// OnMove sets a callback that fires for each move emitted.
func (s *Session) OnMove(cb func(Move)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMove = cb
}

// OnDisconnect sets a callback that fires once when the session ends.
// The error is nil for a local Close.
func (s *Session) OnDisconnect(cb func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = cb
}

// OnError sets a callback for frames that could not be applied and moves
// that were dropped. Errors are *FrameError values.
func (s *Session) OnError(cb func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = cb
}

// OnFrame sets a callback that fires for every state notification after it
// has been processed.
func (s *Session) OnFrame(cb func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = cb
}

// Start reads the initial state, seeds the session with it and subscribes
// to notifications. No move is emitted for the initial frame.
func (s *Session) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	data, err := s.transport.ReadState(ctx)
	if err != nil {
		return fmt.Errorf("%w: read initial state: %v", ErrTransport, err)
	}

	if len(data) < FrameSize {
		return &FrameError{Frame: data, Err: fmt.Errorf("%w: initial frame has %d bytes", ErrMalformedFrame, len(data))}
	}
	raw, _ := DecodeFrame(data)
	visible, err := Project(raw)
	if err != nil {
		return &FrameError{Frame: data, Err: err}
	}

	// Connected before subscribing: transports may deliver the first
	// notification before NotifyState returns.
	s.mu.Lock()
	s.raw = raw
	s.visible = visible
	s.state = StateConnected
	s.mu.Unlock()

	s.transport.NotifyDisconnect(s.handleDisconnect)
	if err := s.transport.NotifyState(s.HandleFrame); err != nil {
		s.mu.Lock()
		if s.state == StateConnected {
			s.state = StateIdle
		}
		s.mu.Unlock()
		return fmt.Errorf("%w: subscribe to state: %v", ErrTransport, err)
	}

	s.log.Debug("session started", zap.String("frame", hex.EncodeToString(data)))
	return nil
}

// HandleFrame applies one state notification. Transports call it through
// the NotifyState subscription; it is exported so frames from other sources
// (replays, bridges) can be fed in directly. Frames are ignored unless the
// session is connected.
func (s *Session) HandleFrame(data []byte) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != StateConnected {
		s.log.Debug("frame ignored", zap.Stringer("state", state), zap.Int("bytes", len(data)))
		return
	}

	frame := Frame{Data: append([]byte(nil), data...), Time: time.Now()}
	var errs []error

	if len(data) < FrameSize {
		errs = append(errs, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(data)))
	}
	raw, codes := DecodeFrame(data)
	var visible VisibleState
	valid := false
	if len(errs) == 0 {
		v, err := Project(raw)
		if err != nil {
			errs = append(errs, err)
		} else {
			visible, valid = v, true
		}
	}

	// Only the newest code is this frame's turn. The rest were surfaced by
	// earlier frames.
	var move *Move
	if len(codes) > 0 {
		if m, err := DecodeMove(codes[0]); err != nil {
			errs = append(errs, err)
		} else {
			m = m.WithTime(frame.Time)
			move = &m
		}
		if len(codes) > 1 {
			s.log.Debug("frame carried queued moves",
				zap.Int("codes", len(codes)),
				zap.Stringer("head", codes[0]))
		}
	}
	frame.Move = move
	frame.Err = errors.Join(errs...)

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		s.log.Debug("frame dropped after disconnect", zap.Int("bytes", len(data)))
		return
	}
	if valid {
		s.raw = raw
		s.visible = visible
	}
	onError := s.onError
	s.mu.Unlock()

	for _, err := range errs {
		s.log.Warn("frame rejected",
			zap.String("hex", hex.EncodeToString(data)),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		if onError != nil {
			onError(&FrameError{Frame: frame.Data, Err: err})
		}
	}

	// An error callback may have closed the session.
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	if move != nil && s.config.moveHistory {
		s.moveHistory = append(s.moveHistory, *move)
	}
	onMove, onFrame := s.onMove, s.onFrame
	s.mu.Unlock()

	if move != nil && onMove != nil {
		onMove(*move)
	}
	if onFrame != nil {
		onFrame(frame)
	}
}

func (s *Session) handleDisconnect(err error) {
	s.disconnectOnce.Do(func() {
		s.mu.Lock()
		s.state = StateDisconnected
		s.disconnectErr = err
		cb := s.onDisconnect
		s.mu.Unlock()

		close(s.done)
		s.log.Info("session disconnected", zap.Error(err))

		if cb != nil {
			cb(err)
		}
	})
}

// Close disconnects from the cube. It is safe to call more than once.
func (s *Session) Close() error {
	err := s.transport.Close()
	s.handleDisconnect(nil)
	return err
}

// Done returns a channel that is closed when the session disconnects.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the session disconnected with, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disconnectErr
}

// State access

// Phase returns the lifecycle state of the session.
func (s *Session) Phase() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// State returns the visible state computed from the latest valid snapshot.
// Before Start it is the zero VisibleState.
func (s *Session) State() VisibleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return VisibleState{
		Corners: append([]Corner(nil), s.visible.Corners...),
		Edges:   append([]Edge(nil), s.visible.Edges...),
	}
}

// RawState returns a copy of the latest valid snapshot.
func (s *Session) RawState() RawState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw.Clone()
}

// Moves returns the move history since Start or the last ClearHistory.
func (s *Session) Moves() []Move {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Move, len(s.moveHistory))
	copy(result, s.moveHistory)
	return result
}

// ClearHistory clears the move history.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveHistory = nil
}

// BatteryLevel asks the cube for its battery level and waits for the reply.
// The result is a percentage in 0..100; a reply that is too short or out of
// range fails with ErrMalformedFrame. Only one request may be in flight; a
// concurrent call fails with ErrBatteryBusy. The wait is bounded by ctx and
// the configured battery timeout.
func (s *Session) BatteryLevel(ctx context.Context) (int, error) {
	if s.Phase() != StateConnected {
		return 0, ErrNotConnected
	}

	select {
	case s.battery <- struct{}{}:
		defer func() { <-s.battery }()
	default:
		return 0, ErrBatteryBusy
	}

	if s.config.batteryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.batteryTimeout)
		defer cancel()
	}

	replies := make(chan []byte, 1)
	err := s.transport.NotifySystem(func(data []byte) {
		select {
		case replies <- append([]byte(nil), data...):
		default:
		}
	})
	if err != nil {
		return 0, fmt.Errorf("%w: subscribe to system: %v", ErrTransport, err)
	}
	defer func() {
		if err := s.transport.StopSystem(); err != nil {
			s.log.Debug("stop system notifications", zap.Error(err))
		}
	}()

	if err := s.transport.WriteSystem([]byte{protocol.CmdBattery}); err != nil {
		return 0, fmt.Errorf("%w: write battery command: %v", ErrTransport, err)
	}

	select {
	case reply := <-replies:
		level, err := protocol.DecodeBattery(reply)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		s.log.Debug("battery level", zap.Int("level", level))
		return level, nil
	case <-s.done:
		return 0, ErrDisconnected
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, ErrTimeout
		}
		return 0, ctx.Err()
	}
}
