package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/sjawhar/chanti/internal/command"
)

func (s *System) lookup(ctx context.Context, pid int) (*process.Process, error) {
	if pid <= 0 || pid > math.MaxInt32 {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, fmt.Errorf("pid %d: %w", pid, ErrProcessNotFound)
		}
		return nil, fmt.Errorf("lookup pid %d: %w", pid, err)
	}
	return p, nil
}

func processName(ctx context.Context, p *process.Process) string {
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return fmt.Sprintf("pid %d", p.Pid)
	}
	return name
}

func (s *System) TerminateProcess(ctx context.Context, a command.TerminateProcess) (Result, error) {
	p, err := s.lookup(ctx, a.PID)
	if err != nil {
		return Result{}, err
	}
	name := processName(ctx, p)
	if err := p.TerminateWithContext(ctx); err != nil {
		return Result{}, fmt.Errorf("terminate %s (pid %d): %w", name, a.PID, err)
	}
	return Result{Say: fmt.Sprintf("Process %s (PID: %d) terminated", name, a.PID)}, nil
}

func (s *System) ForceKillProcess(ctx context.Context, a command.ForceKillProcess) (Result, error) {
	p, err := s.lookup(ctx, a.PID)
	if err != nil {
		return Result{}, err
	}
	name := processName(ctx, p)
	if err := p.KillWithContext(ctx); err != nil {
		return Result{}, fmt.Errorf("kill %s (pid %d): %w", name, a.PID, err)
	}
	return Result{Say: fmt.Sprintf("Process %s (PID: %d) force killed", name, a.PID)}, nil
}

// TerminateProcesses reports the outcome for every id on its own line and
// never fails as a whole.
func (s *System) TerminateProcesses(ctx context.Context, a command.TerminateProcesses) (Result, error) {
	var res Result
	terminated := 0
	for _, pid := range a.PIDs {
		p, err := s.lookup(ctx, pid)
		if errors.Is(err, ErrProcessNotFound) {
			res.Details = append(res.Details, fmt.Sprintf("Process %d not found", pid))
			continue
		}
		if err != nil {
			res.Details = append(res.Details, fmt.Sprintf("Could not look up process %d: %v", pid, err))
			continue
		}
		name := processName(ctx, p)
		if err := p.TerminateWithContext(ctx); err != nil {
			res.Details = append(res.Details, fmt.Sprintf("Could not terminate %s (PID: %d): %v", name, pid, err))
			continue
		}
		terminated++
		res.Details = append(res.Details, fmt.Sprintf("Terminated %s (PID: %d)", name, pid))
	}
	for _, tok := range a.Invalid {
		res.Details = append(res.Details, "Invalid PID: "+tok)
	}

	res.Say = fmt.Sprintf("Terminated %d of %d processes", terminated, len(a.PIDs)+len(a.Invalid))
	return res, nil
}

func (s *System) DescribeProcess(ctx context.Context, a command.DescribeProcess) (Result, error) {
	p, err := s.lookup(ctx, a.PID)
	if err != nil {
		return Result{}, err
	}
	name := processName(ctx, p)
	cpuPct, _ := p.CPUPercentWithContext(ctx)
	memPct, _ := p.MemoryPercentWithContext(ctx)

	details := []string{
		"Name: " + name,
		fmt.Sprintf("PID: %d", a.PID),
		fmt.Sprintf("CPU: %.1f%%", cpuPct),
		fmt.Sprintf("Memory: %.2f%%", memPct),
	}
	if status, err := p.StatusWithContext(ctx); err == nil && len(status) > 0 {
		details = append(details, "Status: "+strings.Join(status, ", "))
	}
	if user, err := p.UsernameWithContext(ctx); err == nil {
		details = append(details, "User: "+user)
	}
	if threads, err := p.NumThreadsWithContext(ctx); err == nil {
		details = append(details, fmt.Sprintf("Threads: %d", threads))
	}
	if created, err := p.CreateTimeWithContext(ctx); err == nil {
		details = append(details, "Started: "+time.UnixMilli(created).Format(time.DateTime))
	}

	return Result{
		Say:     fmt.Sprintf("Process %s is using %.1f%% CPU and %.1f%% memory", name, cpuPct, memPct),
		Details: details,
	}, nil
}

func (s *System) FindProcesses(ctx context.Context, a command.FindProcesses) (Result, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list processes: %w", err)
	}

	term := strings.ToLower(a.Term)
	var matches []string
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || !strings.Contains(strings.ToLower(name), term) {
			continue
		}
		matches = append(matches, fmt.Sprintf("%s (PID: %d)", name, p.Pid))
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		return Result{Say: fmt.Sprintf("No processes found matching %s", a.Term)}, nil
	}
	return Result{
		Say:     fmt.Sprintf("Found %d processes matching %s", len(matches), a.Term),
		Details: matches,
	}, nil
}

// MonitorProcess takes one CPU sample over sampleInterval and warns when CPU
// or memory use is above the threshold.
func (s *System) MonitorProcess(ctx context.Context, a command.MonitorProcess) (Result, error) {
	p, err := s.lookup(ctx, a.PID)
	if err != nil {
		return Result{}, fmt.Errorf("could not monitor PID %d: %w", a.PID, err)
	}
	name := processName(ctx, p)

	cpuPct, err := p.PercentWithContext(ctx, s.sampleInterval)
	if err != nil {
		return Result{}, fmt.Errorf("could not monitor PID %d: %w", a.PID, err)
	}
	memPct, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("could not monitor PID %d: %w", a.PID, err)
	}

	details := []string{
		fmt.Sprintf("CPU: %.1f%%", cpuPct),
		fmt.Sprintf("Memory: %.1f%%", memPct),
		fmt.Sprintf("Threshold: %.1f%%", a.Threshold),
	}
	if cpuPct > a.Threshold || float64(memPct) > a.Threshold {
		return Result{
			Say:     fmt.Sprintf("Warning! Process %s is using %.1f%% CPU and %.1f%% memory", name, cpuPct, memPct),
			Details: details,
		}, nil
	}
	return Result{
		Say:     fmt.Sprintf("Process %s is below %.0f%%", name, a.Threshold),
		Details: details,
	}, nil
}

func (s *System) ListProcesses(ctx context.Context, _ command.ListProcesses) (Result, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list processes: %w", err)
	}

	lines := make([]string, 0, len(procs))
	denied, gone := 0, 0
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			if errors.Is(err, process.ErrorProcessNotRunning) {
				gone++
			} else {
				denied++
			}
			continue
		}
		user, err := p.UsernameWithContext(ctx)
		if err != nil {
			user = "N/A"
		}
		cpuPct := "N/A"
		if v, err := p.CPUPercentWithContext(ctx); err == nil {
			cpuPct = fmt.Sprintf("%.1f%%", v)
		}
		memPct := "N/A"
		if v, err := p.MemoryPercentWithContext(ctx); err == nil {
			memPct = fmt.Sprintf("%.2f%%", v)
		}
		lines = append(lines, fmt.Sprintf("%s (PID: %d, User: %s, CPU: %s, Memory: %s)", name, p.Pid, user, cpuPct, memPct))
	}
	sort.Strings(lines)

	details := append([]string{
		fmt.Sprintf("Total visible processes: %d", len(lines)),
		fmt.Sprintf("Access denied processes: %d", denied),
		fmt.Sprintf("Terminated during query: %d", gone),
	}, lines...)
	return Result{Say: fmt.Sprintf("%d processes running", len(lines)), Details: details}, nil
}

// StopProcess kills the first process whose name contains the target name.
func (s *System) StopProcess(ctx context.Context, a command.StopProcess) (Result, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list processes: %w", err)
	}

	target := strings.ToLower(a.Target)
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || !strings.Contains(strings.ToLower(name), target) {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			continue
		}
		return Result{Say: fmt.Sprintf("Stopped %s successfully", a.Target)}, nil
	}
	return Result{}, fmt.Errorf("could not find process %s: %w", a.Target, ErrProcessNotFound)
}

func (s *System) ShowSystemStats(ctx context.Context, _ command.ShowSystemStats) (Result, error) {
	var details []string

	if pct, err := cpu.PercentWithContext(ctx, s.sampleInterval, false); err == nil && len(pct) > 0 {
		details = append(details, fmt.Sprintf("CPU usage: %.1f%%", pct[0]))
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		details = append(details, fmt.Sprintf("Memory usage: %.1f%%", vm.UsedPercent))
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		details = append(details, fmt.Sprintf("Disk usage: %.1f%%", du.UsedPercent))
	}

	if len(details) == 0 {
		return Result{}, errors.New("system statistics unavailable")
	}
	return Result{Say: strings.Join(details, ", "), Details: details}, nil
}
