package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"chestorganizer/internal/organizer"
	persistlog "chestorganizer/internal/persistence/log"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "runs":
			runsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// runsCmd summarizes the organize JSONL logs, which stay complete even when the index drops writes.
func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	fromTick := fs.Uint64("from_tick", 0, "first tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "last tick (inclusive, 0 = no limit)")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	files, err := filepath.Glob(filepath.Join(*dataDir, "worlds", *worldID, "organize", "organize-*.jsonl.zst"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "glob:", err)
		os.Exit(1)
	}
	sort.Strings(files)

	sum := newRunSummary()
	for _, f := range files {
		err := persistlog.ReadJSONLZstd(f, func(line []byte) error {
			var rec organizer.RunRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return err
			}
			if rec.Tick < *fromTick || (*toTick != 0 && rec.Tick > *toTick) {
				return nil
			}
			sum.add(rec)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f, err)
			os.Exit(1)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
		return
	}
	sum.render(os.Stdout)
}

type triggerStats struct {
	Runs     int `json:"runs"`
	Failed   int `json:"failed"`
	Lossy    int `json:"lossy"`
	Rejected int `json:"rejected_stacks"`
	Overflow int `json:"overflow_stacks"`
}

type runSummary struct {
	ByTrigger map[organizer.Trigger]*triggerStats `json:"by_trigger"`
	Errors    map[string]int                      `json:"errors,omitempty"`
}

func newRunSummary() *runSummary {
	return &runSummary{ByTrigger: map[organizer.Trigger]*triggerStats{}, Errors: map[string]int{}}
}

func (s *runSummary) add(rec organizer.RunRecord) {
	st := s.ByTrigger[rec.Trigger]
	if st == nil {
		st = &triggerStats{}
		s.ByTrigger[rec.Trigger] = st
	}
	st.Runs++
	if !rec.OK {
		st.Failed++
		s.Errors[rec.Error]++
	}
	if rec.Report.Lost() {
		st.Lossy++
	}
	st.Rejected += len(rec.Report.Rejected)
	st.Overflow += len(rec.Report.Overflow)
}

func (s *runSummary) render(out io.Writer) {
	triggers := make([]string, 0, len(s.ByTrigger))
	for t := range s.ByTrigger {
		triggers = append(triggers, string(t))
	}
	sort.Strings(triggers)

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Trigger", "Runs", "Failed", "Lossy", "Rejected", "Overflow"})
	for _, t := range triggers {
		st := s.ByTrigger[organizer.Trigger(t)]
		tw.AppendRow(table.Row{t, st.Runs, st.Failed, st.Lossy, st.Rejected, st.Overflow})
	}
	tw.Render()

	if len(s.Errors) == 0 {
		return
	}
	errs := make([]string, 0, len(s.Errors))
	for e := range s.Errors {
		errs = append(errs, e)
	}
	sort.Strings(errs)
	et := table.NewWriter()
	et.SetOutputMirror(out)
	et.AppendHeader(table.Row{"Error", "Count"})
	for _, e := range errs {
		et.AppendRow(table.Row{e, s.Errors[e]})
	}
	et.Render()
}
