package sandsh

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const maxPsLines = 200

func cmdCPU(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	pct, err := x.probe.CPUPercent(ctx, x.cpuInterval)
	if err != nil {
		return Result{}, err
	}
	return output(fmt.Sprintf("CPU: %.1f%%\n", pct), cwd)
}

func cmdMem(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	m, err := x.probe.Memory(ctx)
	if err != nil {
		return Result{}, err
	}
	return output(fmt.Sprintf("Memory: %d/%d bytes (%.1f%%)\n", m.Used, m.Total, m.UsedPercent), cwd)
}

// cmdPs lists live processes. Arguments are accepted and ignored.
func cmdPs(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	procs, err := x.probe.Processes(ctx)
	if err != nil {
		return Result{}, err
	}

	lines := make([]string, 0, len(procs))
	for _, p := range procs {
		name := []rune(p.Name)
		if len(name) > 20 {
			name = name[:20]
		}
		lines = append(lines, fmt.Sprintf("%6d %-20s CPU%%:%5.1f MEM%%:%5.1f",
			p.PID, string(name), p.CPUPercent, p.MemoryPercent))
	}
	sort.Strings(lines)
	if len(lines) > maxPsLines {
		lines = lines[:maxPsLines]
	}
	return output(strings.Join(lines, "\n")+"\n", cwd)
}

func cmdWhoami(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	user := x.getenv("USER")
	if user == "" {
		user = "user"
	}
	return output(user+"\n", cwd)
}

func cmdDate(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	return output(x.now().Format("2006-01-02 15:04:05")+"\n", cwd)
}

func cmdUptime(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	boot, err := x.probe.BootTime(ctx)
	if err != nil {
		return Result{}, err
	}
	secs := int(x.now().Sub(boot).Seconds())
	return output(fmt.Sprintf("up %dh %dm %ds\n", secs/3600, secs%3600/60, secs%60), cwd)
}

func cmdClear(ctx context.Context, x *Executor, args []string, cwd string) (Result, error) {
	return output(ClearMarker, cwd)
}
