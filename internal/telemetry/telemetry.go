// Package telemetry samples local machine metrics for the dashboard header.
// Everything here is local and fast, so snapshots bypass the TTL cache and
// can run on a tight cadence.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1024 * 1024 * 1024

type Snapshot struct {
	Hostname string  `json:"hostname"`
	Username string  `json:"username"`
	UptimeS  uint64  `json:"uptime_s"`
	CPU      float64 `json:"cpu_percent"`

	MemUsedGB  float64 `json:"mem_used_gb"`
	MemTotalGB float64 `json:"mem_total_gb"`
	MemPercent float64 `json:"mem_percent"`

	Load1 float64 `json:"load_1"`

	TakenAt time.Time `json:"taken_at"`
}

// WhoAmI returns the "user@host" string.
func (s *Snapshot) WhoAmI() string {
	return fmt.Sprintf("%s@%s", s.Username, s.Hostname)
}

type Service struct {
	hostname string
	username string
}

func NewService() *Service {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	} else if env := os.Getenv("USER"); env != "" {
		username = env
	}

	return &Service{
		hostname: hostname,
		username: username,
	}
}

// Snapshot samples CPU, memory and load. Partial sensor failures degrade the
// affected fields to zero instead of failing the snapshot.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{
		Hostname: s.hostname,
		Username: s.username,
		TakenAt:  time.Now(),
	}

	if percentages, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false); err == nil && len(percentages) > 0 {
		snapshot.CPU = percentages[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snapshot.MemUsedGB = float64(vm.Used) / gib
		snapshot.MemTotalGB = float64(vm.Total) / gib
		snapshot.MemPercent = vm.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		snapshot.Load1 = avg.Load1
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		snapshot.UptimeS = uptime
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return snapshot, nil
}
