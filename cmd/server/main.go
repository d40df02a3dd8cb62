package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chestorganizer/internal/organizer"
	persistlog "chestorganizer/internal/persistence/log"
	"chestorganizer/internal/sim/catalogs"
	"chestorganizer/internal/sim/tuning"
	"chestorganizer/internal/sim/world"
	"chestorganizer/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (organize runs, audits, catalogs)")
		reach      = flag.Float64("reach", 0, "max distance for INTERACT/PLACE/PUT (0 disables)")
		token      = flag.String("token", "", "shared join token (or set CO_JOIN_TOKEN)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional read-model index; JSONL logs are always written.
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	// Closed in order once the world loop has stopped.
	var closers []io.Closer
	if idx != nil {
		closers = append(closers, idx)
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	runLog := persistlog.NewRunLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	closers = append(closers, runLog, auditLog)

	w, err := world.New(world.WorldConfig{
		ID:         *worldID,
		TickRateHz: tune.TickRateHz,
		Height:     tune.Height,
		BoundaryR:  tune.WorldBoundaryR,
		Reach:      *reach,
	}, cats, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	runSinks := multiRunSink{runLog}
	audits := multiAuditLogger{auditLog}
	if idx != nil {
		runSinks = append(runSinks, idx)
		audits = append(audits, idx)
	}
	w.SetAuditLogger(audits)

	addon := organizer.New(organizer.ConfigFromTuning(tune.Organizer), logger, runSinks)
	if err := addon.Install(w); err != nil {
		logger.Fatalf("install organizer: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	worldDone := startWorld(ctx, w, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsSource{
		worldID:  *worldID,
		world:    w,
		sessions: addon.OpenSessions,
		index:    idx,
	}.Handler())

	if envBool("CO_ENABLE_ADMIN_HTTP", true) {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID  string             `json:"world_id"`
				Tick     uint64             `json:"tick"`
				Sessions int                `json:"open_sessions"`
				Metrics  world.WorldMetrics `json:"metrics"`
			}{
				WorldID:  *worldID,
				Tick:     w.CurrentTick(),
				Sessions: addon.OpenSessions(),
				Metrics:  w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	}

	wsSrv := ws.NewServer(w, logger)
	wsSrv.Token = strings.TrimSpace(*token)
	if wsSrv.Token == "" {
		wsSrv.Token = strings.TrimSpace(os.Getenv("CO_JOIN_TOKEN"))
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	cancel()
	shutdownRuntime(worldDone, addon, closers, logger)
	logger.Printf("stopped")
}

func startWorld(ctx context.Context, w *world.World, logger *log.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("world stopped: %v", err)
		}
	}()
	return done
}

// shutdownRuntime waits for the world loop to return before detaching the add-on and
// closing the sinks, so no step can write into a closed sink.
func shutdownRuntime(worldDone <-chan struct{}, addon *organizer.Addon, closers []io.Closer, logger *log.Logger) {
	<-worldDone
	addon.Close()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Printf("close: %v", err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
