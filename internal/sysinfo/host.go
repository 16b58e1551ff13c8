package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// HostProbe reads the local machine through gopsutil.
type HostProbe struct{}

// NewHostProbe creates a probe for the local machine.
func NewHostProbe() *HostProbe {
	return &HostProbe{}
}

func (HostProbe) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu percent: no samples")
	}
	return percents[0], nil
}

func (HostProbe) Memory(ctx context.Context) (MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, fmt.Errorf("virtual memory: %w", err)
	}
	return MemoryStats{
		Total:       vm.Total,
		Used:        vm.Used,
		UsedPercent: vm.UsedPercent,
	}, nil
}

// Processes lists live processes. Processes that exit or deny access while
// being inspected keep their zero values rather than failing the listing.
func (HostProbe) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		info := ProcessInfo{PID: p.Pid}
		if name, err := p.NameWithContext(ctx); err == nil {
			info.Name = name
		}
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			info.CPUPercent = pct
		}
		if pct, err := p.MemoryPercentWithContext(ctx); err == nil {
			info.MemoryPercent = float64(pct)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (HostProbe) BootTime(ctx context.Context) (time.Time, error) {
	secs, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("boot time: %w", err)
	}
	return time.Unix(int64(secs), 0), nil
}
