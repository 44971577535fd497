package processes

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    Column
		wantErr bool
	}{
		{"name", ByName, false},
		{"PID", ByPID, false},
		{" cpu ", ByCPU, false},
		{"memory", ByMemory, false},
		{"mem", ByMemory, false},
		{"user", ByCPU, true},
	}
	for _, tt := range tests {
		got, err := ParseColumn(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, Asc, Desc.Flip())
	assert.Equal(t, Desc, Asc.Flip())
	assert.Equal(t, "▼", Desc.Arrow())
	assert.Equal(t, "▲", Asc.Arrow())
	assert.Equal(t, "desc", Desc.String())
}

func TestNextLimit(t *testing.T) {
	assert.Equal(t, 20, NextLimit(10))
	assert.Equal(t, 50, NextLimit(20))
	assert.Equal(t, 10, NextLimit(50))
	assert.Equal(t, 10, NextLimit(7))
}

func TestSorted_TotalOrder(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	items := make([]backend.ProcessInfo, 60)
	for i := range items {
		items[i] = backend.ProcessInfo{
			PID:    r.Intn(5000) + 1,
			Name:   string(rune('a'+r.Intn(26))) + string(rune('A'+r.Intn(26))),
			CPU:    float64(r.Intn(40)) / 2,
			Memory: float64(r.Intn(40)) / 4,
		}
	}

	key := map[Column]func(a, b backend.ProcessInfo) bool{
		ByPID:    func(a, b backend.ProcessInfo) bool { return a.PID < b.PID },
		ByName:   func(a, b backend.ProcessInfo) bool { return a.Name < b.Name },
		ByCPU:    func(a, b backend.ProcessInfo) bool { return a.CPU < b.CPU },
		ByMemory: func(a, b backend.ProcessInfo) bool { return a.Memory < b.Memory },
	}

	for _, col := range Columns {
		for _, dir := range []Direction{Asc, Desc} {
			out := Sorted(items, col, dir)
			require.Len(t, out, len(items))
			less := key[col]
			ok := sort.SliceIsSorted(out, func(i, j int) bool {
				if dir == Desc {
					return less(out[j], out[i])
				}
				return less(out[i], out[j])
			})
			assert.True(t, ok, "%s %s", col, dir)
		}
	}
}

func TestSorted_DoesNotMutateInput(t *testing.T) {
	in := rows()
	orig := rows()
	_ = Sorted(in, ByName, Asc)
	assert.Equal(t, orig, in)
}

func TestSorted_NumericNotLexical(t *testing.T) {
	in := []backend.ProcessInfo{{PID: 9}, {PID: 100}, {PID: 20}}
	assert.Equal(t, []int{9, 20, 100}, pids(Sorted(in, ByPID, Asc)))
}
