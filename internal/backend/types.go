package backend

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status" validate:"required"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

// CPUStat is the cpu block of a metrics snapshot.
type CPUStat struct {
	Percent float64 `json:"percent"`
	Cores   int     `json:"cores"`
}

// UsageStat is the ram or disk block of a metrics snapshot.
type UsageStat struct {
	Percent float64 `json:"percent"`
	FreeGB  float64 `json:"free_gb"`
	TotalGB float64 `json:"total_gb,omitempty"`
	UsedGB  float64 `json:"used_gb,omitempty"`
}

// MetricsResponse is the body of GET /api/system/metrics.
type MetricsResponse struct {
	CPU       CPUStat   `json:"cpu"`
	RAM       UsageStat `json:"ram"`
	Disk      UsageStat `json:"disk"`
	Processes int       `json:"processes"`
}

// ProcessInfo is one row of the process list.
type ProcessInfo struct {
	PID    int     `json:"pid"`
	Name   string  `json:"name"`
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
}

// ProcessesResponse is the body of GET /api/system/processes.
type ProcessesResponse struct {
	Processes []ProcessInfo `json:"processes"`
	Total     int           `json:"total,omitempty"`
}

// CommandResponse is the body of POST /api/command.
type CommandResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// ChatResponse is the body of POST /api/ai/chat. Its shape is owned by the
// backend, so the raw document is kept alongside the reply text.
type ChatResponse struct {
	Raw map[string]any
}

// Reply returns the assistant text: the "response" field when it is a
// string, otherwise the whole document as JSON.
func (c *ChatResponse) Reply() string {
	if c == nil || c.Raw == nil {
		return ""
	}
	for _, key := range []string{"response", "reply", "message"} {
		if s, ok := c.Raw[key].(string); ok {
			return s
		}
	}
	b, err := json.Marshal(c.Raw)
	if err != nil {
		return fmt.Sprint(c.Raw)
	}
	return string(b)
}

// ActionRequest is the body of POST /api/system/actions.
type ActionRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// ActionResponse is the reply to an action.
type ActionResponse struct {
	Success bool           `json:"success"`
	Action  string         `json:"action,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Message returns result.message, or the error text for failed actions.
func (a *ActionResponse) Message() string {
	if a == nil {
		return ""
	}
	if s, ok := a.Result["message"].(string); ok && s != "" {
		return s
	}
	return a.Error
}

// Action names understood by the backend.
const (
	ActionKillProcess   = "kill_process"
	ActionCleanRAM      = "clean_ram"
	ActionGetSystemInfo = "get_system_info"
)

// BootTimeLayout is the format of get_system_info's boot_time.
const BootTimeLayout = "2006-01-02 15:04:05"

// SystemInfo is the result of the get_system_info action.
type SystemInfo struct {
	Hostname     string
	Username     string
	OS           string
	OSVersion    string
	Architecture string
	Processor    string
	BootTime     time.Time
}

func systemInfoFromResult(result map[string]any) SystemInfo {
	str := func(key string) string {
		if s, ok := result[key].(string); ok {
			return s
		}
		return ""
	}

	info := SystemInfo{
		Hostname:     str("hostname"),
		Username:     str("username"),
		OS:           str("os"),
		OSVersion:    str("os_version"),
		Architecture: str("architecture"),
		Processor:    str("processor"),
	}
	if bt := str("boot_time"); bt != "" {
		if t, err := time.ParseInLocation(BootTimeLayout, bt, time.Local); err == nil {
			info.BootTime = t
		}
	}
	return info
}
