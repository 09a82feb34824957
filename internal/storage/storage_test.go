package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/SeamusWaldron/giiker_ble_library"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sub", "test.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	v, err := db.CurrentVersion()
	if err != nil || v != 1 {
		t.Errorf("CurrentVersion = %d, %v, want 1", v, err)
	}
	if db.Path() != path {
		t.Errorf("Path = %q", db.Path())
	}
	db.Close()

	// Reopening must not apply the migration twice.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	if v, _ := db.CurrentVersion(); v != 1 {
		t.Errorf("CurrentVersion after reopen = %d", v)
	}
}

func TestRecordingLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordingRepository(db)

	initial := giiker.SolvedFrame()
	id, err := repo.Create("GiC12345", "AA:BB", "", initial)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	rec, err := repo.Get(id)
	if err != nil || rec == nil {
		t.Fatalf("Get = %v, %v", rec, err)
	}
	if rec.DeviceName == nil || *rec.DeviceName != "GiC12345" {
		t.Errorf("DeviceName = %v", rec.DeviceName)
	}
	if rec.Notes != nil {
		t.Errorf("empty notes should be NULL, got %q", *rec.Notes)
	}
	if !bytes.Equal(rec.InitialFrame, initial) {
		t.Errorf("InitialFrame = % X", rec.InitialFrame)
	}
	if rec.EndedAt != nil || rec.DurationMs != nil {
		t.Error("new recording should not be ended")
	}
	if time.Since(rec.StartedAt) > time.Minute {
		t.Errorf("StartedAt = %v", rec.StartedAt)
	}

	if err := repo.End(id); err != nil {
		t.Fatalf("End error: %v", err)
	}
	rec, _ = repo.Get(id)
	if rec.EndedAt == nil || rec.DurationMs == nil || *rec.DurationMs < 0 {
		t.Errorf("ended recording = %+v", rec)
	}

	missing, err := repo.Get("nope")
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = %v, %v, want nil, nil", missing, err)
	}
}

func TestRecordingListAndLast(t *testing.T) {
	db := openTestDB(t)
	repo := NewRecordingRepository(db)

	last, err := repo.GetLast()
	if err != nil || last != nil {
		t.Fatalf("GetLast on empty db = %v, %v", last, err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := repo.Create("cube", "", "", giiker.SolvedFrame())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	last, err = repo.GetLast()
	if err != nil || last == nil || last.RecordingID != ids[2] {
		t.Errorf("GetLast = %v, %v, want %s", last, err, ids[2])
	}

	list, err := repo.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].RecordingID != ids[2] || list[1].RecordingID != ids[1] {
		t.Errorf("List(2) returned wrong recordings")
	}

	if n, _ := repo.Count(); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestFramesAndMoves(t *testing.T) {
	db := openTestDB(t)
	recID, err := NewRecordingRepository(db).Create("cube", "", "notes", giiker.SolvedFrame())
	if err != nil {
		t.Fatal(err)
	}

	frames := NewFrameRepository(db)
	moves := NewMoveRepository(db)
	ts := time.UnixMilli(1700000000123)

	good := append(giiker.SolvedFrame(), 0x50)
	goodID, err := frames.Create(recID, 0, ts, good, nil)
	if err != nil {
		t.Fatalf("Create frame error: %v", err)
	}
	if _, err := frames.Create(recID, 1, ts.Add(time.Second), []byte{0x01}, errors.New("malformed")); err != nil {
		t.Fatalf("Create frame error: %v", err)
	}

	m := giiker.Move{Face: giiker.FaceR, Turn: giiker.CW, Time: ts}
	if _, err := moves.Create(recID, 0, m, &goodID); err != nil {
		t.Fatalf("Create move error: %v", err)
	}
	m2 := giiker.Move{Face: giiker.FaceU, Turn: giiker.DoubleCCW, Time: ts.Add(time.Second)}
	if _, err := moves.Create(recID, 1, m2, nil); err != nil {
		t.Fatalf("Create move error: %v", err)
	}

	gotFrames, err := frames.GetByRecording(recID)
	if err != nil || len(gotFrames) != 2 {
		t.Fatalf("GetByRecording = %d frames, %v", len(gotFrames), err)
	}
	if !bytes.Equal(gotFrames[0].Data, good) || gotFrames[0].Error != nil {
		t.Errorf("frame 0 = %+v", gotFrames[0])
	}
	if gotFrames[1].Error == nil || *gotFrames[1].Error != "malformed" {
		t.Errorf("frame 1 error = %v", gotFrames[1].Error)
	}
	if !gotFrames[0].Time().Equal(ts) {
		t.Errorf("frame time = %v, want %v", gotFrames[0].Time(), ts)
	}
	if n, _ := frames.CountRejected(recID); n != 1 {
		t.Errorf("CountRejected = %d, want 1", n)
	}

	gotMoves, err := moves.GetByRecording(recID)
	if err != nil || len(gotMoves) != 2 {
		t.Fatalf("GetByRecording = %d moves, %v", len(gotMoves), err)
	}
	if gotMoves[0].Notation != "R" || gotMoves[1].Notation != "U2'" {
		t.Errorf("notations = %s %s", gotMoves[0].Notation, gotMoves[1].Notation)
	}
	if gotMoves[0].SourceFrameID == nil || *gotMoves[0].SourceFrameID != goodID {
		t.Errorf("source frame = %v, want %d", gotMoves[0].SourceFrameID, goodID)
	}
	if gotMoves[1].SourceFrameID != nil {
		t.Errorf("source frame = %v, want nil", *gotMoves[1].SourceFrameID)
	}
	back := gotMoves[1].Move()
	if back.Face != m2.Face || back.Turn != m2.Turn || !back.Time.Equal(ts.Add(time.Second)) {
		t.Errorf("Move() = %+v, want %+v", back, m2)
	}
	if n, _ := moves.Count(recID); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	recs := NewRecordingRepository(db)
	recID, _ := recs.Create("cube", "", "", giiker.SolvedFrame())

	frameID, _ := NewFrameRepository(db).Create(recID, 0, time.Now(), giiker.SolvedFrame(), nil)
	_, _ = NewMoveRepository(db).Create(recID, 0, giiker.Move{Face: giiker.FaceF, Turn: giiker.CW}, &frameID)
	_, _ = NewBatteryRepository(db).Create(recID, "cube", time.Now(), 50)

	if err := recs.Delete(recID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	var n int
	for _, table := range []string{"frames", "moves", "battery_readings"} {
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after delete", table, n)
		}
	}
}

func TestBatteryReadings(t *testing.T) {
	db := openTestDB(t)
	repo := NewBatteryRepository(db)

	latest, err := repo.Latest()
	if err != nil || latest != nil {
		t.Fatalf("Latest on empty db = %v, %v", latest, err)
	}

	now := time.Now()
	if _, err := repo.Create("", "cube", now.Add(-time.Hour), 90); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := repo.Create("", "", now, 85); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	latest, err = repo.Latest()
	if err != nil || latest == nil {
		t.Fatalf("Latest = %v, %v", latest, err)
	}
	if latest.Level != 85 || latest.RecordingID != nil || latest.DeviceName != nil {
		t.Errorf("Latest = %+v", latest)
	}
}

func TestMoveRequiresRecording(t *testing.T) {
	db := openTestDB(t)
	_, err := NewMoveRepository(db).Create("missing", 0, giiker.Move{Face: giiker.FaceR, Turn: giiker.CW}, nil)
	if err == nil {
		t.Error("move for an unknown recording should violate the foreign key")
	}
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO recordings (recording_id, started_at) VALUES ('x', 'now')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction error = %v, want boom", err)
	}
	if n, _ := NewRecordingRepository(db).Count(); n != 0 {
		t.Errorf("Count after rollback = %d, want 0", n)
	}
}
