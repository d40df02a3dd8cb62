package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chestorganizer/internal/organizer"
	"chestorganizer/internal/persistence/indexdb"
	"chestorganizer/internal/sim/catalogs"
	"chestorganizer/internal/sim/tuning"
	"chestorganizer/internal/sim/world"
)

type runtimeIndex interface {
	organizer.RunSink
	world.AuditLogger
	Close() error
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	Stats() indexdb.Stats
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("CO_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported CO_INDEX_BACKEND: %s", backend)
	}
}

// multiRunSink fans out to every non-nil sink; individual failures are ignored.
type multiRunSink []organizer.RunSink

func (m multiRunSink) WriteRun(rec organizer.RunRecord) error {
	for _, s := range m {
		if s != nil {
			_ = s.WriteRun(rec)
		}
	}
	return nil
}

type multiAuditLogger []world.AuditLogger

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	for _, l := range m {
		if l != nil {
			_ = l.WriteAudit(entry)
		}
	}
	return nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
