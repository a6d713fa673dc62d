package workers

import (
	"chatwav/observability"
	"context"
	"log/slog"
	"time"
)

// HeartbeatWorker samples the hub load and the process resources every
// interval and logs them.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitoring *observability.MonitoringManager, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitoring: monitoring, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := w.monitoring.Refresh()
			w.log.Debug("Heartbeat",
				"connections", stats.Connections,
				"online_users", stats.OnlineUsers,
				"goroutines", stats.Goroutines,
				"rss_bytes", stats.RSSBytes,
				"cpu_percent", stats.CPUPercent)
		}
	}
}
