package dash

import (
	"time"

	"github.com/rileyhilliard/karasu/internal/bridge"
	"github.com/rileyhilliard/karasu/internal/health"
	"github.com/rileyhilliard/karasu/internal/nav"
	"github.com/rileyhilliard/karasu/internal/notify"
	"github.com/rileyhilliard/karasu/internal/processes"
	"github.com/rileyhilliard/karasu/internal/telemetry"
)

// history is the sparkline data at the time of a sample.
type history struct {
	cpu, ram, disk []float64
}

// healthMsg carries a backend health transition.
type healthMsg struct {
	transition health.Transition
	version    string
}

// sampleMsg carries a new telemetry sample and the recomputed display.
type sampleMsg struct {
	sample  telemetry.Sample
	display telemetry.Display
	series  history
}

// procsMsg carries a new process table state.
type procsMsg processes.State

// navMsg carries a navigation view.
type navMsg nav.View

// notesMsg carries the visible notifications.
type notesMsg []notify.Entry

// clockMsg ticks the status bar clock.
type clockMsg time.Time

// pendingMsg asks the user to confirm a termination.
type pendingMsg struct {
	pending *processes.Pending
}

// confirmDoneMsg reports the outcome of a confirmed or cancelled
// termination.
type confirmDoneMsg struct {
	err error
}

// chatMsg is one assistant exchange.
type chatMsg struct {
	prompt string
	reply  string
	err    error
}

// speakMsg is text the host asked to be spoken.
type speakMsg string

// voiceMsg reports whether the host is listening.
type voiceMsg bool

// windowMsg is a window-control signal from the host.
type windowMsg bridge.Channel
