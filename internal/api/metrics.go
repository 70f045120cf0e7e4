package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	Queue         QueueMetrics   `json:"queue"`
	Links         *LinkMetrics   `json:"links,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains event stream statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// QueueMetrics reports requests waiting for the loop.
type QueueMetrics struct {
	Depth    int `json:"depth"`
	Capacity int `json:"capacity"`
}

// LinkMetrics reports the upstream links. It is omitted when the loop does
// not answer in time.
type LinkMetrics struct {
	Network bool `json:"network"`
	MQTT    bool `json:"mqtt"`
	Cloud   bool `json:"cloud"`
}

// handleMetrics returns process and link metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Queue: QueueMetrics{
			Depth:    len(s.queue),
			Capacity: cap(s.queue),
		},
	}

	links, err := s.call(r.Context(), func() (any, error) {
		return &LinkMetrics{
			Network: s.system.Network().Connected(),
			MQTT:    s.system.MQTT().Connected(),
			Cloud:   s.system.Cloud().Connected(),
		}, nil
	})
	if err == nil {
		metrics.Links, _ = links.(*LinkMetrics)
	}

	writeJSON(w, http.StatusOK, metrics)
}
