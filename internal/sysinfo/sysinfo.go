// Package sysinfo reads host resource usage for the cpu, mem, ps and uptime
// commands. The host implementation is backed by gopsutil; Static is a fixed
// snapshot for tests.
package sysinfo

import (
	"context"
	"time"
)

// MemoryStats is a virtual memory snapshot.
type MemoryStats struct {
	Total       uint64
	Used        uint64
	UsedPercent float64
}

// ProcessInfo describes one live process.
type ProcessInfo struct {
	PID           int32
	Name          string
	CPUPercent    float64
	MemoryPercent float64
}

// Probe is the read-only view of the operating system the commands need.
type Probe interface {
	// CPUPercent samples overall CPU utilization over interval.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	Memory(ctx context.Context) (MemoryStats, error)
	Processes(ctx context.Context) ([]ProcessInfo, error)
	BootTime(ctx context.Context) (time.Time, error)
}

// Static returns the same values on every call.
type Static struct {
	CPU   float64
	Mem   MemoryStats
	Procs []ProcessInfo
	Boot  time.Time
	Err   error
}

func (s *Static) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	return s.CPU, s.Err
}

func (s *Static) Memory(ctx context.Context) (MemoryStats, error) {
	return s.Mem, s.Err
}

func (s *Static) Processes(ctx context.Context) ([]ProcessInfo, error) {
	return s.Procs, s.Err
}

func (s *Static) BootTime(ctx context.Context) (time.Time, error) {
	return s.Boot, s.Err
}
