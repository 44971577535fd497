package backend

import (
	"github.com/go-playground/validator/v10"
)

// The wire types mirror the public response types with pointer fields so a
// missing key is distinguishable from a zero value. A body that decodes but
// lacks a required key is a malformed response.

var validate = validator.New()

type usageWire struct {
	Percent *float64 `json:"percent" validate:"required,gte=0,lte=100"`
	FreeGB  *float64 `json:"free_gb" validate:"required,gte=0"`
	TotalGB float64  `json:"total_gb"`
	UsedGB  float64  `json:"used_gb"`
}

func (u *usageWire) stat() UsageStat {
	return UsageStat{Percent: *u.Percent, FreeGB: *u.FreeGB, TotalGB: u.TotalGB, UsedGB: u.UsedGB}
}

type cpuWire struct {
	Percent *float64 `json:"percent" validate:"required,gte=0,lte=100"`
	Cores   int      `json:"cores" validate:"gte=0"`
}

type metricsWire struct {
	CPU       *cpuWire   `json:"cpu" validate:"required"`
	RAM       *usageWire `json:"ram" validate:"required"`
	Disk      *usageWire `json:"disk" validate:"required"`
	Processes *int       `json:"processes" validate:"required,gte=0"`
}

func (m *metricsWire) response() *MetricsResponse {
	return &MetricsResponse{
		CPU:       CPUStat{Percent: *m.CPU.Percent, Cores: m.CPU.Cores},
		RAM:       m.RAM.stat(),
		Disk:      m.Disk.stat(),
		Processes: *m.Processes,
	}
}

type processWire struct {
	PID    *int     `json:"pid" validate:"required,gt=0"`
	Name   string   `json:"name"`
	CPU    *float64 `json:"cpu" validate:"required,gte=0"`
	Memory *float64 `json:"memory" validate:"required,gte=0"`
}

type processesWire struct {
	Processes []processWire `json:"processes" validate:"required,dive"`
	Total     int           `json:"total"`
}

func (p *processesWire) items() []ProcessInfo {
	out := make([]ProcessInfo, 0, len(p.Processes))
	for _, w := range p.Processes {
		out = append(out, ProcessInfo{PID: *w.PID, Name: w.Name, CPU: *w.CPU, Memory: *w.Memory})
	}
	return out
}

type actionWire struct {
	Success *bool          `json:"success" validate:"required"`
	Action  string         `json:"action"`
	Result  map[string]any `json:"result"`
	Error   string         `json:"error"`
}

type commandWire struct {
	Success  *bool  `json:"success" validate:"required"`
	Response string `json:"response"`
	Error    string `json:"error"`
}
