package main

import (
	"fmt"
	"net/http"

	"chestorganizer/internal/persistence/indexdb"
	"chestorganizer/internal/sim/world"
)

type metricsSource struct {
	worldID  string
	world    *world.World
	sessions func() int
	index    runtimeIndex
}

// Minimal Prometheus exposition format.
func (m metricsSource) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		wm := m.world.Metrics()
		tick := m.world.CurrentTick()
		if wm.Tick != 0 {
			tick = wm.Tick
		}

		fmt.Fprintf(rw, "# HELP chestorganizer_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE chestorganizer_world_tick gauge\n")
		fmt.Fprintf(rw, "chestorganizer_world_tick{world=%q} %d\n", m.worldID, tick)

		fmt.Fprintf(rw, "# HELP chestorganizer_world_agents Current number of agents in the world.\n")
		fmt.Fprintf(rw, "# TYPE chestorganizer_world_agents gauge\n")
		fmt.Fprintf(rw, "chestorganizer_world_agents{world=%q} %d\n", m.worldID, wm.Agents)

		fmt.Fprintf(rw, "# HELP chestorganizer_world_containers Container blocks in the world.\n")
		fmt.Fprintf(rw, "# TYPE chestorganizer_world_containers gauge\n")
		fmt.Fprintf(rw, "chestorganizer_world_containers{world=%q} %d\n", m.worldID, wm.Containers)

		fmt.Fprintf(rw, "# HELP chestorganizer_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE chestorganizer_world_step_ms gauge\n")
		fmt.Fprintf(rw, "chestorganizer_world_step_ms{world=%q} %.3f\n", m.worldID, wm.StepMS)

		if m.sessions != nil {
			fmt.Fprintf(rw, "# HELP chestorganizer_open_sessions Storage blocks currently open.\n")
			fmt.Fprintf(rw, "# TYPE chestorganizer_open_sessions gauge\n")
			fmt.Fprintf(rw, "chestorganizer_open_sessions{world=%q} %d\n", m.worldID, m.sessions())
		}

		if m.index != nil {
			writeIndexMetrics(rw, m.index.Stats())
		}
	}
}

func writeIndexMetrics(rw http.ResponseWriter, s indexdb.Stats) {
	fmt.Fprintf(rw, "# HELP chestorganizer_index_queue_depth Index writer backlog.\n")
	fmt.Fprintf(rw, "# TYPE chestorganizer_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "chestorganizer_index_queue_depth %d\n", s.QueueDepth)

	fmt.Fprintf(rw, "# HELP chestorganizer_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE chestorganizer_index_dropped_total counter\n")
	fmt.Fprintf(rw, "chestorganizer_index_dropped_total{kind=%q} %d\n", "run", s.DropRunTotal)
	fmt.Fprintf(rw, "chestorganizer_index_dropped_total{kind=%q} %d\n", "audit", s.DropAuditTotal)
}
