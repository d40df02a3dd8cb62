package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"chestorganizer/internal/organizer"
	"chestorganizer/internal/sim/catalogs"
	"chestorganizer/internal/sim/tuning"
	"chestorganizer/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of organize runs and audits. Writes are
// queued and applied in batches by one goroutine; the JSONL logs stay the source of truth.
//
// World ticks restart at 0 with every process, so rows carry the boot id of the process
// that wrote them and a wall-clock timestamp taken when the write was queued.
type SQLiteIndex struct {
	db     *sql.DB
	bootID string
	now    func() time.Time

	// mu guards closed and the close of ch against concurrent senders.
	mu     sync.RWMutex
	closed bool
	ch     chan req
	wg     sync.WaitGroup
	once   sync.Once

	dropRun   atomic.Uint64
	dropAudit atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqAudit
)

type req struct {
	kind reqKind
	at   time.Time

	run   organizer.RunRecord
	audit world.AuditEntry
}

type Stats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropRunTotal   uint64 `json:"drop_run_total"`
	DropAuditTotal uint64 `json:"drop_audit_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:     db,
		bootID: uuid.NewString(),
		now:    time.Now,
		ch:     make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS organize_runs (
			run_id TEXT PRIMARY KEY,
			boot_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			trigger_kind TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			session_id TEXT,
			block TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			error TEXT,
			before_slots INTEGER NOT NULL,
			after_slots INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			overflow INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_actor_tick ON organize_runs(actor_id, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_pos_tick ON organize_runs(x, z, y, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON organize_runs(ts);`,
		`CREATE TABLE IF NOT EXISTS audits (
			boot_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block TEXT,
			to_block TEXT,
			slot INTEGER,
			count INTEGER,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (boot_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, z, y, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_ts ON audits(ts);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropRunTotal:   s.dropRun.Load(),
		DropAuditTotal: s.dropAudit.Load(),
	}
}

// BootID identifies this process's rows.
func (s *SQLiteIndex) BootID() string { return s.bootID }

func (s *SQLiteIndex) WriteRun(rec organizer.RunRecord) error {
	if s == nil {
		return nil
	}
	if !s.enqueue(req{kind: reqRun, run: rec}) {
		s.dropRun.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil {
		return nil
	}
	if !s.enqueue(req{kind: reqAudit, audit: entry}) {
		s.dropAudit.Add(1)
	}
	return nil
}

// enqueue never blocks. It reports false only when the queue is full; writes after
// Close are ignored.
func (s *SQLiteIndex) enqueue(r req) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	if s.now != nil {
		r.at = s.now()
	} else {
		r.at = time.Now()
	}
	select {
	case s.ch <- r:
		return true
	default:
		return false
	}
}

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("blocks_defs", filepath.Join(configDir, "blocks.json"))
		read("items_defs", filepath.Join(configDir, "items.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["blocks_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b := raw["items_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','2')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RunRow is one indexed organize run.
type RunRow struct {
	RunID   string
	BootID  string
	At      time.Time
	Tick    uint64
	Trigger string
	ActorID string
	Block   string
	Pos     [3]int
	OK      bool
	Error   string
}

// RecentRuns returns the newest runs first, across process restarts. Only committed
// rows are visible.
func (s *SQLiteIndex) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id,boot_id,ts,tick,trigger_kind,actor_id,block,x,y,z,ok,COALESCE(error,'') FROM organize_runs ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var tick, ts int64
		var ok int
		if err := rows.Scan(&r.RunID, &r.BootID, &ts, &tick, &r.Trigger, &r.ActorID, &r.Block, &r.Pos[0], &r.Pos[1], &r.Pos[2], &ok, &r.Error); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		r.At = time.Unix(0, ts).UTC()
		r.OK = ok != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO organize_runs(run_id,boot_id,ts,tick,trigger_kind,actor_id,session_id,block,x,y,z,ok,error,before_slots,after_slots,rejected,overflow,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(boot_id,ts,tick,seq,actor,action,x,y,z,from_block,to_block,slot,count,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		// Commit once the backlog drains so readers never wait on an idle tx.
		if opCount >= commitEvery || len(s.ch) == 0 || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			run := r.run
			raw, _ := json.Marshal(run)
			if insertRun == nil {
				continue
			}
			if _, err := tx.Stmt(insertRun).Exec(
				run.RunID,
				s.bootID,
				r.at.UnixNano(),
				int64(run.Tick),
				string(run.Trigger),
				run.ActorID,
				run.SessionID,
				run.Block,
				run.Pos[0], run.Pos[1], run.Pos[2],
				boolInt(run.OK),
				run.Error,
				run.Report.Before,
				run.Report.After,
				len(run.Report.Rejected),
				len(run.Report.Overflow),
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit == nil {
				continue
			}
			if _, err := tx.Stmt(insertAudit).Exec(
				s.bootID,
				r.at.UnixNano(),
				int64(a.Tick),
				seq,
				a.Actor,
				a.Action,
				a.Pos[0], a.Pos[1], a.Pos[2],
				a.From,
				a.To,
				a.Slot,
				a.Count,
				a.Reason,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
