package world

type WorldMetrics struct {
	Tick       uint64  `json:"tick"`
	Agents     int     `json:"agents"`
	Containers int     `json:"containers"`
	StepMS     float64 `json:"step_ms"`
}

// Metrics is safe to call from any goroutine; it reports the last completed step.
func (w *World) Metrics() WorldMetrics {
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}
