package processes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	limit  int
	sortBy string
}

type fakeSource struct {
	mu       sync.Mutex
	items    []backend.ProcessInfo
	fetchErr error
	killErr  error
	fetches  []fetchCall
	kills    []int
	gate     chan chan struct{} // when set, each fetch waits for a release
}

func (f *fakeSource) Processes(ctx context.Context, limit int, sortBy string) ([]backend.ProcessInfo, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, fetchCall{limit, sortBy})
	items, err, gate := f.items, f.fetchErr, f.gate
	f.mu.Unlock()

	if gate != nil {
		release := make(chan struct{})
		gate <- release
		<-release
	}
	if err != nil {
		return nil, err
	}
	out := make([]backend.ProcessInfo, len(items))
	copy(out, items)
	return out, nil
}

func (f *fakeSource) KillProcess(ctx context.Context, pid int) (*backend.ActionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kills = append(f.kills, pid)
	if f.killErr != nil {
		return nil, f.killErr
	}
	return &backend.ActionResponse{Success: true, Result: map[string]any{"message": "Process terminated"}}, nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

type fakeNotifier struct {
	mu      sync.Mutex
	entries []notify.Entry
}

func (n *fakeNotifier) Push(message string, kind notify.Kind) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, notify.Entry{Message: message, Kind: kind})
	return ""
}

func rows() []backend.ProcessInfo {
	return []backend.ProcessInfo{
		{PID: 300, Name: "python", CPU: 12.5, Memory: 3.0},
		{PID: 12, Name: "Xorg", CPU: 40.0, Memory: 1.5},
		{PID: 77, Name: "chrome", CPU: 12.5, Memory: 9.8},
		{PID: 5, Name: "bash", CPU: 0.0, Memory: 0.1},
	}
}

func pids(items []backend.ProcessInfo) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.PID
	}
	return out
}

func TestRefresh_SortsLocally(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})

	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))

	st := c.State()
	assert.True(t, st.Loaded)
	assert.Equal(t, ByCPU, st.SortColumn)
	assert.Equal(t, Desc, st.SortDirection)
	assert.Equal(t, []int{12, 300, 77, 5}, pids(st.Items), "cpu desc, ties keep backend order")
	assert.Equal(t, []fetchCall{{10, "cpu"}}, src.fetches)
}

func TestRefresh_FailureKeepsState(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})
	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))
	c.SetSort(ByCPU) // asc
	before := c.State()

	src.fetchErr = errors.New(errors.ErrBackend, "down", "")
	err := c.Refresh(context.Background(), 50, ByName)
	require.Error(t, err)

	after := c.State()
	assert.Equal(t, before.Items, after.Items, "stale but present")
	assert.Equal(t, 10, after.Limit)
	assert.Equal(t, ByCPU, after.SortColumn)
	assert.Equal(t, Asc, after.SortDirection)
}

func TestSetSort(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})
	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))

	st := c.SetSort(ByCPU)
	assert.Equal(t, Asc, st.SortDirection, "same column toggles")
	assert.Equal(t, []int{5, 300, 77, 12}, pids(st.Items))

	st = c.SetSort(ByCPU)
	assert.Equal(t, Desc, st.SortDirection, "toggles once per call")

	c.SetSort(ByCPU) // asc
	st = c.SetSort(ByName)
	assert.Equal(t, ByName, st.SortColumn)
	assert.Equal(t, Desc, st.SortDirection, "new column always starts descending")
	assert.Equal(t, []string{"python", "chrome", "bash", "Xorg"}, names(st.Items), "byte-wise compare")

	assert.Equal(t, 1, src.fetchCount(), "sorting never fetches")
}

func names(items []backend.ProcessInfo) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestSetSort_UsedByNextRefresh(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{}, WithInitial(20, ByCPU))

	c.SetSort(ByMemory)
	require.NoError(t, c.RefreshCurrent(context.Background()))
	assert.Equal(t, fetchCall{20, "memory"}, src.fetches[0])
	assert.Equal(t, Desc, c.State().SortDirection)
}

func TestSetSort_SurvivesInFlightRefresh(t *testing.T) {
	gate := make(chan chan struct{})
	src := &fakeSource{items: rows(), gate: gate}
	c := NewController(src, &fakeNotifier{}, WithInitial(20, ByCPU))

	done := make(chan error, 1)
	go func() { done <- c.RefreshCurrent(context.Background()) }()
	release := <-gate

	c.SetSort(ByName)
	close(release)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, ByName, st.SortColumn)
	assert.Equal(t, Desc, st.SortDirection)
	assert.True(t, st.Loaded, "rows from the cpu fetch are still applied")
	assert.Equal(t, []string{"python", "chrome", "bash", "Xorg"}, names(st.Items))
}

func TestCycleLimit(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})

	require.NoError(t, c.CycleLimit(context.Background()))
	assert.Equal(t, 20, c.State().Limit)
	require.NoError(t, c.CycleLimit(context.Background()))
	assert.Equal(t, 50, c.State().Limit)
	require.NoError(t, c.CycleLimit(context.Background()))
	assert.Equal(t, 10, c.State().Limit)
}

func TestTerminate_WithoutConfirmationNeverCallsBackend(t *testing.T) {
	src := &fakeSource{items: rows()}
	notes := &fakeNotifier{}
	c := NewController(src, notes)
	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))

	p := c.RequestTermination(300)
	assert.Equal(t, "python", p.Name())
	assert.Equal(t, "Terminate python (PID 300)?", p.Prompt())
	assert.Same(t, p, c.PendingTermination())

	err := p.Cancel()
	assert.True(t, errors.IsCode(err, errors.ErrCancelled))
	assert.Nil(t, c.PendingTermination())
	assert.Empty(t, src.kills)
	assert.Empty(t, notes.entries)

	err = p.Confirm(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrStale), "cancelled request cannot be confirmed")
	assert.Empty(t, src.kills)
}

func TestTerminate_ConfirmSuccess(t *testing.T) {
	src := &fakeSource{items: rows()}
	notes := &fakeNotifier{}
	c := NewController(src, notes)
	require.NoError(t, c.Refresh(context.Background(), 20, ByMemory))
	before := src.fetchCount()

	require.NoError(t, c.RequestTermination(77).Confirm(context.Background()))

	assert.Equal(t, []int{77}, src.kills)
	require.Len(t, notes.entries, 1)
	assert.Equal(t, notify.Success, notes.entries[0].Kind)
	assert.Equal(t, "Process terminated", notes.entries[0].Message)

	assert.Equal(t, before+1, src.fetchCount(), "exactly one refresh")
	assert.Equal(t, fetchCall{20, "memory"}, src.fetches[len(src.fetches)-1], "prior limit and column")
	assert.Nil(t, c.PendingTermination())
}

func TestTerminate_ConfirmFailure(t *testing.T) {
	src := &fakeSource{items: rows(), killErr: errors.New(errors.ErrAction, "Access denied", "")}
	notes := &fakeNotifier{}
	c := NewController(src, notes)
	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))
	before := c.State()
	fetches := src.fetchCount()

	err := c.RequestTermination(12).Confirm(context.Background())
	require.Error(t, err)

	require.Len(t, notes.entries, 1)
	assert.Equal(t, notify.Error, notes.entries[0].Kind)
	assert.Contains(t, notes.entries[0].Message, "Access denied")
	assert.Equal(t, fetches, src.fetchCount(), "no refresh after failure")
	assert.Equal(t, before, c.State())
}

func TestTerminate_NewerRequestReplacesPending(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})

	first := c.RequestTermination(5)
	second := c.RequestTermination(12)

	assert.True(t, errors.IsCode(first.Confirm(context.Background()), errors.ErrStale))
	require.NoError(t, second.Confirm(context.Background()))
	assert.Equal(t, []int{12}, src.kills)
	assert.Equal(t, "Terminate process 12?", second.Prompt(), "unknown name before first fetch")
}

func TestRefresh_StaleFetchDiscarded(t *testing.T) {
	gate := make(chan chan struct{})
	src := &fakeSource{items: rows(), gate: gate}
	c := NewController(src, &fakeNotifier{})

	// First dashboard instance starts a fetch that stalls.
	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Refresh(context.Background(), 10, ByCPU) }()
	releaseFirst := <-gate

	// Navigating away and back creates a new instance that invalidates and
	// refreshes with different rows.
	c.Invalidate()
	src.mu.Lock()
	src.items = []backend.ProcessInfo{{PID: 999, Name: "fresh", CPU: 1, Memory: 1}}
	src.mu.Unlock()

	secondDone := make(chan error, 1)
	go func() { secondDone <- c.Refresh(context.Background(), 10, ByCPU) }()
	releaseSecond := <-gate
	close(releaseSecond)
	require.NoError(t, <-secondDone)

	close(releaseFirst)
	err := <-firstDone
	assert.True(t, errors.IsCode(err, errors.ErrStale))

	assert.Equal(t, []int{999}, pids(c.State().Items), "late response from old instance ignored")
}

func TestOnChange(t *testing.T) {
	src := &fakeSource{items: rows()}
	var got []State
	c := NewController(src, &fakeNotifier{}, WithOnChange(func(s State) { got = append(got, s) }))

	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))
	c.SetSort(ByPID)
	require.Len(t, got, 2)
	assert.Equal(t, ByPID, got[1].SortColumn)
}

func TestRefresh_UpdatedAt(t *testing.T) {
	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	c := NewController(&fakeSource{items: rows()}, &fakeNotifier{}, WithClock(func() time.Time { return at }))
	require.NoError(t, c.RefreshCurrent(context.Background()))
	assert.Equal(t, at, c.State().UpdatedAt)
}

func TestTask_RespectsActive(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})

	active := false
	task := c.Task(time.Hour, func() bool { return active })
	task.RunNow(context.Background())
	assert.Equal(t, 0, src.fetchCount())

	active = true
	task.RunNow(context.Background())
	assert.Equal(t, 1, src.fetchCount())
}

func TestState_RevIncreases(t *testing.T) {
	src := &fakeSource{items: rows()}
	c := NewController(src, &fakeNotifier{})
	r0 := c.State().Rev

	require.NoError(t, c.Refresh(context.Background(), 10, ByCPU))
	r1 := c.State().Rev
	r2 := c.SetSort(ByName).Rev

	assert.Greater(t, r1, r0)
	assert.Greater(t, r2, r1)

	src.fetchErr = errors.New(errors.ErrBackend, "down", "")
	_ = c.Refresh(context.Background(), 10, ByCPU)
	assert.Equal(t, r2, c.State().Rev, "failed refresh changes nothing")
}
