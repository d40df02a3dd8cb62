package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	actor := fs.String("actor", "", "actor id filter")
	failed := fs.Bool("failed", false, "runs: only failed or lossy runs")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, os.Stdout, q, queryOpts{Limit: *limit, Actor: *actor, Failed: *failed}); err != nil {
		fmt.Fprintln(os.Stderr, q+":", err)
		os.Exit(1)
	}
}

type queryOpts struct {
	Limit  int
	Actor  string
	Failed bool
}

func runQuery(db *sql.DB, out io.Writer, q string, o queryOpts) error {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	var (
		sqlText string
		args    []any
	)
	switch q {
	case "runs":
		sqlText = `SELECT raw_json FROM organize_runs WHERE (?='' OR actor_id=?)`
		args = append(args, o.Actor, o.Actor)
		if o.Failed {
			sqlText += ` AND (ok=0 OR rejected>0 OR overflow>0)`
		}
		sqlText += ` ORDER BY ts DESC, rowid DESC LIMIT ?`
	case "audits":
		sqlText = `SELECT raw_json FROM audits WHERE (?='' OR actor=?) ORDER BY ts DESC, seq DESC LIMIT ?`
		args = append(args, o.Actor, o.Actor)
	case "catalogs":
		sqlText = `SELECT json_object('name',name,'digest',digest,'updated_at',updated_at) FROM catalogs ORDER BY name LIMIT ?`
	default:
		return fmt.Errorf("unknown query (want runs|audits|catalogs)")
	}
	args = append(args, o.Limit)

	rows, err := db.Query(sqlText, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	enc := json.NewEncoder(out)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := enc.Encode(json.RawMessage(raw)); err != nil {
			return err
		}
	}
	return rows.Err()
}
