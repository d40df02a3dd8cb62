package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chestorganizer/internal/organizer"
	"chestorganizer/internal/sim/world"
)

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Write(map[string]int{"n": 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	count := func(name string) int {
		n := 0
		if err := ReadJSONLZstd(filepath.Join(dir, name), func([]byte) error { n++; return nil }); err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return n
	}
	if got := count("x-2024-05-01-10.jsonl.zst"); got != 1 {
		t.Fatalf("hour 10 lines: %d", got)
	}
	if got := count("x-2024-05-01-11.jsonl.zst"); got != 2 {
		t.Fatalf("hour 11 lines: %d", got)
	}
}

func TestJSONLZstdWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "x")
		w.now = func() time.Time { return now }
		if err := w.Write(map[string]int{"i": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	var got []int
	err := ReadJSONLZstd(filepath.Join(dir, "x-2024-05-01-10.jsonl.zst"), func(line []byte) error {
		var v map[string]int
		if err := json.Unmarshal(line, &v); err != nil {
			return err
		}
		got = append(got, v["i"])
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("lines: %v", got)
	}
}

func TestRunAndAuditLoggers(t *testing.T) {
	dir := t.TempDir()
	runs := NewRunLogger(dir)
	audits := NewAuditLogger(dir)

	if err := runs.WriteRun(organizer.RunRecord{RunID: "r1", Trigger: organizer.TriggerCommand, ActorID: "A1", OK: true}); err != nil {
		t.Fatalf("write run: %v", err)
	}
	if err := audits.WriteAudit(world.AuditEntry{Tick: 3, Actor: "A1", Action: "PUT_ITEM"}); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	_ = runs.Close()
	_ = audits.Close()

	for _, sub := range []string{"organize", "audit"} {
		matches, err := filepath.Glob(filepath.Join(dir, sub, sub+"-*.jsonl.zst"))
		if err != nil || len(matches) != 1 {
			t.Fatalf("%s files: %v %v", sub, matches, err)
		}
		fi, err := os.Stat(matches[0])
		if err != nil || fi.Size() == 0 {
			t.Fatalf("%s file empty: %v", sub, err)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "organize", "*.jsonl.zst"))
	var rec organizer.RunRecord
	if err := ReadJSONLZstd(matches[0], func(line []byte) error { return json.Unmarshal(line, &rec) }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if rec.RunID != "r1" || rec.Trigger != organizer.TriggerCommand || !rec.OK {
		t.Fatalf("record: %+v", rec)
	}
}

func TestJSONLZstdWriter_ReadableWhileOpen(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	defer w.Close()

	path := filepath.Join(dir, "x-2024-05-01-10.jsonl.zst")
	count := func() int {
		n := 0
		if err := ReadJSONLZstd(path, func([]byte) error { n++; return nil }); err != nil {
			t.Fatalf("read while open: %v", err)
		}
		return n
	}

	for i := 0; i < 3; i++ {
		if err := w.Write(map[string]int{"n": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got := count(); got != 3 {
		t.Fatalf("lines visible while writer open: %d", got)
	}

	if err := w.Write(map[string]int{"n": 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := count(); got != 4 {
		t.Fatalf("lines after another write: %d", got)
	}
}
