package processes

import (
	"cmp"
	"fmt"
	"sort"
	"strings"

	"github.com/rileyhilliard/karasu/internal/backend"
)

// Column is a sortable process table column.
type Column int

const (
	ByName Column = iota
	ByPID
	ByCPU
	ByMemory
)

// Columns lists the columns in table order.
var Columns = []Column{ByPID, ByName, ByCPU, ByMemory}

// String returns the backend sort_by value.
func (c Column) String() string {
	switch c {
	case ByName:
		return "name"
	case ByPID:
		return "pid"
	case ByCPU:
		return "cpu"
	case ByMemory:
		return "memory"
	default:
		return fmt.Sprintf("column(%d)", int(c))
	}
}

// Title is the table header text.
func (c Column) Title() string {
	switch c {
	case ByName:
		return "Name"
	case ByPID:
		return "PID"
	case ByCPU:
		return "CPU %"
	case ByMemory:
		return "Memory %"
	default:
		return c.String()
	}
}

// ParseColumn parses a backend sort_by value.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return ByName, nil
	case "pid":
		return ByPID, nil
	case "cpu":
		return ByCPU, nil
	case "memory", "mem":
		return ByMemory, nil
	default:
		return ByCPU, fmt.Errorf("unknown sort column %q (want name, pid, cpu or memory)", s)
	}
}

// Direction is the sort direction.
type Direction int

const (
	Desc Direction = iota
	Asc
)

func (d Direction) String() string {
	if d == Asc {
		return "asc"
	}
	return "desc"
}

// Arrow is the header indicator for the direction.
func (d Direction) Arrow() string {
	if d == Asc {
		return "▲"
	}
	return "▼"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Limits are the selectable row counts, cycled in order.
var Limits = []int{10, 20, 50}

// NextLimit returns the limit after cur in Limits, wrapping around. An
// unknown cur yields the first limit.
func NextLimit(cur int) int {
	for i, l := range Limits {
		if l == cur {
			return Limits[(i+1)%len(Limits)]
		}
	}
	return Limits[0]
}

// Sorted returns a copy of items ordered by col and dir. Numeric columns
// compare numerically and names compare byte-wise. Ties keep their input
// order.
func Sorted(items []backend.ProcessInfo, col Column, dir Direction) []backend.ProcessInfo {
	out := make([]backend.ProcessInfo, len(items))
	copy(out, items)

	compare := func(a, b backend.ProcessInfo) int {
		switch col {
		case ByName:
			return strings.Compare(a.Name, b.Name)
		case ByPID:
			return cmp.Compare(a.PID, b.PID)
		case ByMemory:
			return cmp.Compare(a.Memory, b.Memory)
		default:
			return cmp.Compare(a.CPU, b.CPU)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}
