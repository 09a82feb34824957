package giiker

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomValidRaw builds a random reachable-looking snapshot: permutations
// of the pieces, orientations in range and random flips.
func randomValidRaw(rng *rand.Rand) RawState {
	raw := RawState{
		CornerPositions:    make([]int, 8),
		CornerOrientations: make([]int, 8),
		EdgePositions:      make([]int, 12),
		EdgeOrientations:   make([]bool, 12),
	}
	for i, p := range rng.Perm(8) {
		raw.CornerPositions[i] = p + 1
		raw.CornerOrientations[i] = rng.Intn(3) + 1
	}
	for i, p := range rng.Perm(12) {
		raw.EdgePositions[i] = p + 1
		raw.EdgeOrientations[i] = rng.Intn(2) == 1
	}
	return raw
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// TestFuzzDecodeFrame_RandomBytes feeds random frames through the full
// decode path and verifies it never panics and keeps its shape
func TestFuzzDecodeFrame_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(40))
		rng.Read(data)

		raw, codes := DecodeFrame(data)
		if len(data) < FrameSize {
			if !raw.IsZero() || codes != nil {
				t.Fatalf("round %d: short frame % X decoded to data", i, data)
			}
			continue
		}

		if len(raw.CornerPositions) != 8 || len(raw.EdgePositions) != 12 || len(raw.EdgeOrientations) != 12 {
			t.Fatalf("round %d: wrong shape for % X", i, data)
		}
		if len(codes) != len(data)-FrameSize {
			t.Fatalf("round %d: got %d codes for %d trailing bytes", i, len(codes), len(data)-FrameSize)
		}

		if _, err := Project(raw); err != nil && !errors.Is(err, ErrIntegrity) {
			t.Fatalf("round %d: Project error %v is not ErrIntegrity", i, err)
		}
		moves, errs := DecodeMoves(codes)
		if len(moves)+len(errs) != len(codes) {
			t.Fatalf("round %d: %d moves + %d errors for %d codes", i, len(moves), len(errs), len(codes))
		}
	}
}

// TestFuzzEncodeFrame_RoundTrip verifies EncodeFrame and DecodeFrame are
// inverse for random valid snapshots and move queues
func TestFuzzEncodeFrame_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	turns := []Turn{CW, Double, CCW, DoubleCCW}
	for i := 0; i < rounds; i++ {
		raw := randomValidRaw(rng)

		var codes []MoveCode
		for n := rng.Intn(4); n > 0; n-- {
			m := Move{Face: wireFaces[rng.Intn(6)], Turn: turns[rng.Intn(4)]}
			code, err := EncodeMove(m)
			if err != nil {
				t.Fatalf("round %d: EncodeMove(%v): %v", i, m, err)
			}
			codes = append(codes, code)
		}

		data, err := EncodeFrame(raw, codes...)
		if err != nil {
			t.Fatalf("round %d: EncodeFrame: %v", i, err)
		}
		gotRaw, gotCodes := DecodeFrame(data)
		again, _ := EncodeFrame(gotRaw, gotCodes...)
		if !bytes.Equal(data, again) {
			t.Fatalf("round %d: round trip mismatch\n  % X\n  % X", i, data, again)
		}

		v, err := Project(gotRaw)
		if err != nil {
			t.Fatalf("round %d: valid snapshot rejected: %v", i, err)
		}
		if len(v.Corners) != 8 || len(v.Edges) != 12 {
			t.Fatalf("round %d: projected %d corners %d edges", i, len(v.Corners), len(v.Edges))
		}
	}
}

// TestFuzzProject_ColorCounts verifies every valid snapshot shows each
// color on exactly 9 facelets
func TestFuzzProject_ColorCounts(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		v, err := Project(randomValidRaw(rng))
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}

		counts := map[Color]int{}
		c := v.Facelets()
		for f := range c.Facelets {
			for _, col := range c.Facelets[f] {
				counts[col]++
			}
		}
		for _, col := range []Color{Blue, Yellow, Orange, White, Red, Green} {
			if counts[col] != 9 {
				t.Fatalf("round %d: %s appears %d times\n%s", i, col, counts[col], c)
			}
		}
	}
}

// ============================================================
// Session Fuzz Tests
// ============================================================

// TestFuzzSession_RandomFrames feeds a session random frames and checks
// that the held state is always a valid projection and that a frame emits a
// move exactly when its head code decodes
func TestFuzzSession_RandomFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	ft := newFakeTransport(SolvedFrame())
	s := NewSession(ft)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	emitted := 0
	s.OnMove(func(Move) { emitted++ })

	for i := 0; i < rounds; i++ {
		var data []byte
		if rng.Intn(2) == 0 {
			data, _ = EncodeFrame(randomValidRaw(rng))
		} else {
			data = make([]byte, FrameSize)
			rng.Read(data)
		}
		extra := make([]byte, rng.Intn(3))
		rng.Read(extra)
		data = append(data, extra...)

		want := 0
		if len(extra) > 0 {
			if _, err := DecodeMove(MoveCode{Face: extra[0] >> 4, Turn: extra[0] & 0x0F}); err == nil {
				want = 1
			}
		}

		before := emitted
		ft.send(data)
		if got := emitted - before; got != want {
			t.Fatalf("round %d: %d moves emitted for head % X, want %d", i, got, extra, want)
		}
		if err := Validate(s.RawState()); err != nil {
			t.Fatalf("round %d: session holds an invalid state: %v", i, err)
		}
	}
}
