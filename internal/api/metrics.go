package api

import (
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// bytesPerMB converts byte counts for the metrics response.
const bytesPerMB = 1024 * 1024

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Host          *HostMetrics    `json:"host,omitempty"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	Doorbell      DoorbellMetrics `json:"doorbell"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// HostMetrics contains operating system statistics. Fields the platform
// cannot report are left zero.
type HostMetrics struct {
	UptimeSeconds   uint64  `json:"uptime_seconds"`
	MemoryUsedPct   float64 `json:"memory_used_percent"`
	MemoryAvailable float64 `json:"memory_available_mb"`
	DataDiskUsedPct float64 `json:"data_disk_used_percent"`
	DataDiskFreeMB  float64 `json:"data_disk_free_mb"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Configured    bool `json:"configured"`
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// DoorbellMetrics contains control loop statistics.
type DoorbellMetrics struct {
	Mode            string `json:"mode"`
	SensorConnected bool   `json:"sensor_connected"`
	Fingerprints    int    `json:"fingerprints"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := s.ctrl.Status()
	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		Host: s.hostMetrics(r),
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Doorbell: DoorbellMetrics{
			Mode:            status.Mode,
			SensorConnected: status.SensorConnected,
			Fingerprints:    status.Fingerprints,
		},
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Configured:    true,
			Connected:     s.mqtt.IsConnected(),
			Subscriptions: s.mqtt.SubscriptionCount(),
		}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

// hostMetrics samples the operating system. It returns nil when nothing
// could be read.
func (s *Server) hostMetrics(r *http.Request) *HostMetrics {
	ctx := r.Context()
	var hm HostMetrics
	read := false

	if up, err := host.UptimeWithContext(ctx); err == nil {
		hm.UptimeSeconds = up
		read = true
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		hm.MemoryUsedPct = vm.UsedPercent
		hm.MemoryAvailable = float64(vm.Available) / bytesPerMB
		read = true
	}
	if s.db != nil {
		if du, err := disk.UsageWithContext(ctx, filepath.Dir(s.db.Path())); err == nil {
			hm.DataDiskUsedPct = du.UsedPercent
			hm.DataDiskFreeMB = float64(du.Free) / bytesPerMB
			read = true
		}
	}

	if !read {
		s.logger.Debug("host metrics unavailable")
		return nil
	}
	return &hm
}
