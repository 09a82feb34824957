// Package giiker decodes the Bluetooth telemetry of Giiker smart cubes.
//
// A Giiker cube reports its state as a notification frame on every turn.
// The first 16 bytes of a frame pack the permutation and orientation of the
// eight corners and twelve edges into nibbles; any bytes after that carry
// the most recent turns, newest first. This package decodes those frames,
// corrects the corner twist the hardware reports relative to each slot,
// projects the result onto sticker colors and turns the head move code into
// a Move.
//
// # Quick Start
//
//	session, err := giiker.ConnectFirst(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	session.OnMove(func(m giiker.Move) {
//	    fmt.Println("Move:", m.Notation())
//	})
//
//	<-session.Done()
//
// # Offline decoding
//
// The decoding functions are pure and need no cube:
//
//	raw, codes := giiker.DecodeFrame(frame)
//	state, err := giiker.Project(raw)
//	moves, _ := giiker.DecodeMoves(codes)
//
// # Transports
//
// A Session reads frames from any Transport. Connect uses Bluetooth LE;
// tests and bridges can supply their own implementation.
package giiker
