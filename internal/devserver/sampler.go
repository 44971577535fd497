package devserver

import (
	"context"
	"os/user"
	"runtime"
	"time"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Sampler reads the host the server runs on.
type Sampler interface {
	Metrics(ctx context.Context) (*backend.MetricsResponse, error)
	Processes(ctx context.Context) ([]backend.ProcessInfo, error)
	SystemInfo(ctx context.Context) (map[string]any, error)
	// Terminate sends SIGTERM to pid and returns the process name.
	Terminate(ctx context.Context, pid int) (string, error)
}

const bytesPerGB = 1 << 30

// HostSampler implements Sampler with gopsutil.
type HostSampler struct {
	// CPUWindow is how long a CPU percentage is measured over.
	CPUWindow time.Duration
	// DiskPath is the filesystem reported as disk usage.
	DiskPath string
}

// NewHostSampler returns a sampler measuring CPU over 500ms and reporting
// the root filesystem.
func NewHostSampler() *HostSampler {
	path := "/"
	if runtime.GOOS == "windows" {
		path = "C:\\"
	}
	return &HostSampler{CPUWindow: 500 * time.Millisecond, DiskPath: path}
}

// Metrics samples CPU, memory, disk and the process count.
func (h *HostSampler) Metrics(ctx context.Context) (*backend.MetricsResponse, error) {
	percents, err := cpu.PercentWithContext(ctx, h.CPUWindow, false)
	if err != nil {
		return nil, err
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	du, err := disk.UsageWithContext(ctx, h.DiskPath)
	if err != nil {
		return nil, err
	}
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	return &backend.MetricsResponse{
		CPU: backend.CPUStat{Percent: round2(cpuPercent), Cores: cores},
		RAM: backend.UsageStat{
			Percent: round2(vm.UsedPercent),
			FreeGB:  gb(vm.Available),
			TotalGB: gb(vm.Total),
			UsedGB:  gb(vm.Used),
		},
		Disk: backend.UsageStat{
			Percent: round2(du.UsedPercent),
			FreeGB:  gb(du.Free),
			TotalGB: gb(du.Total),
			UsedGB:  gb(du.Used),
		},
		Processes: len(pids),
	}, nil
}

// Processes lists every readable process. Processes that vanish or deny
// access while being read are skipped.
func (h *HostSampler) Processes(ctx context.Context) ([]backend.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]backend.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		out = append(out, backend.ProcessInfo{
			PID:    int(p.Pid),
			Name:   truncateName(name),
			CPU:    round2(cpuPct),
			Memory: round2(float64(memPct)),
		})
	}
	return out, nil
}

// SystemInfo describes the host in the get_system_info result shape.
func (h *HostSampler) SystemInfo(ctx context.Context) (map[string]any, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	processor := runtime.GOARCH
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 && cpus[0].ModelName != "" {
		processor = cpus[0].ModelName
	}
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return map[string]any{
		"hostname":     info.Hostname,
		"username":     username,
		"os":           info.OS,
		"os_version":   info.PlatformVersion,
		"architecture": info.KernelArch,
		"processor":    processor,
		"boot_time":    time.Unix(int64(info.BootTime), 0).Format(backend.BootTimeLayout),
	}, nil
}

// Terminate sends SIGTERM to pid.
func (h *HostSampler) Terminate(ctx context.Context, pid int) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", err
	}
	name, _ := p.NameWithContext(ctx)
	if err := p.TerminateWithContext(ctx); err != nil {
		return name, err
	}
	return name, nil
}

func gb(bytes uint64) float64 {
	return round2(float64(bytes) / bytesPerGB)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > 50 {
		return string(r[:50])
	}
	return name
}
