package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is a snapshot of the hub load and of the process resources.
type Stats struct {
	Connections int       `json:"connections"`
	OnlineUsers int       `json:"online_users"`
	Goroutines  int       `json:"goroutines"`
	AllocMemMb  uint64    `json:"alloc_mem_mb"`
	NumGC       uint32    `json:"num_gc"`
	RSSBytes    uint64    `json:"rss_bytes"`
	CPUPercent  float64   `json:"cpu_percent"`
	At          time.Time `json:"at"`
}

// HubCounters reads the live load of the hub.
type HubCounters func() (connections, onlineUsers int)

// MonitoringManager keeps the latest Stats, refreshed by the heartbeat worker.
type MonitoringManager struct {
	log      *slog.Logger
	counters HubCounters
	process  *process.Process

	mu     sync.RWMutex
	latest Stats
}

func NewMonitoringManager(log *slog.Logger, counters HubCounters) *MonitoringManager {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// process stats stay at zero
		log.Warn("Process stats unavailable", "error", err)
		p = nil
	}
	return &MonitoringManager{log: log, counters: counters, process: p}
}

// Refresh samples a new snapshot and returns it.
func (mm *MonitoringManager) Refresh() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		Goroutines: runtime.NumGoroutine(),
		AllocMemMb: mem.Alloc / 1024 / 1024,
		NumGC:      mem.NumGC,
		At:         time.Now().UTC(),
	}
	if mm.counters != nil {
		stats.Connections, stats.OnlineUsers = mm.counters()
	}
	if mm.process != nil {
		if info, err := mm.process.MemoryInfo(); err == nil {
			stats.RSSBytes = info.RSS
		}
		if cpu, err := mm.process.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
	}

	mm.mu.Lock()
	mm.latest = stats
	mm.mu.Unlock()
	return stats
}

func (mm *MonitoringManager) Latest() Stats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}

// AsMap flattens the latest snapshot for the debug inspector.
func (mm *MonitoringManager) AsMap() map[string]any {
	s := mm.Latest()
	return map[string]any{
		"connections":  s.Connections,
		"online_users": s.OnlineUsers,
		"goroutines":   s.Goroutines,
		"alloc_mem_mb": s.AllocMemMb,
		"num_gc":       s.NumGC,
		"rss_bytes":    s.RSSBytes,
		"cpu_percent":  s.CPUPercent,
	}
}
