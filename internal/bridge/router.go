// Package bridge accepts structured messages from a host process.
//
// Only channels on the allow-list are accepted and each payload must be a
// JSON object that passes validation. Anything else is dropped without a
// reply: the sender gets no signal about why a message was ignored.
package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rileyhilliard/karasu/internal/logger"
	"golang.org/x/time/rate"
)

// Channel names a message stream.
type Channel string

const (
	Command    Channel = "command"
	Speak      Channel = "speak"
	Action     Channel = "action"
	VoiceStart Channel = "voice-start"
	VoiceStop  Channel = "voice-stop"
	AIChat     Channel = "ai-chat"

	// Window-control signals from the host.
	Minimize Channel = "minimize-window"
	Maximize Channel = "maximize-window"
	Close    Channel = "close-window"
)

// CommandPayload is sent on Command.
type CommandPayload struct {
	Command string `json:"command" validate:"required,max=500"`
}

// SpeakPayload is sent on Speak.
type SpeakPayload struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// ActionPayload is sent on Action.
type ActionPayload struct {
	Action string         `json:"action" validate:"required,oneof=clean_ram kill_process get_system_info"`
	Params map[string]any `json:"params"`
}

// ChatPayload is sent on AIChat.
type ChatPayload struct {
	Message string         `json:"message" validate:"required,max=4000"`
	Context map[string]any `json:"context"`
}

// EmptyPayload is sent on the voice and window channels.
type EmptyPayload struct{}

// allowed maps each accepted channel to its payload constructor.
var allowed = map[Channel]func() any{
	Command:    func() any { return &CommandPayload{} },
	Speak:      func() any { return &SpeakPayload{} },
	Action:     func() any { return &ActionPayload{} },
	VoiceStart: func() any { return &EmptyPayload{} },
	VoiceStop:  func() any { return &EmptyPayload{} },
	AIChat:     func() any { return &ChatPayload{} },
	Minimize:   func() any { return &EmptyPayload{} },
	Maximize:   func() any { return &EmptyPayload{} },
	Close:      func() any { return &EmptyPayload{} },
}

// Allowed reports whether ch is on the allow-list.
func Allowed(ch Channel) bool {
	_, ok := allowed[ch]
	return ok
}

// Message is a validated inbound message. Payload is a pointer to the
// channel's payload type.
type Message struct {
	Channel Channel
	Payload any
}

// Handler consumes messages for one channel.
type Handler func(Message)

// Router validates and dispatches inbound messages.
type Router struct {
	validate *validator.Validate
	limiter  *rate.Limiter
	log      logger.Logger

	mu       sync.RWMutex
	handlers map[Channel]Handler
}

// Option configures a Router.
type Option func(*Router)

// WithRateLimit caps accepted messages per second across all channels.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(rt *Router) { rt.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the logger for dropped messages.
func WithLogger(l logger.Logger) Option {
	return func(rt *Router) { rt.log = l }
}

// NewRouter creates a router with no handlers. By default it accepts 20
// messages per second with a burst of 40.
func NewRouter(opts ...Option) *Router {
	rt := &Router{
		validate: validator.New(),
		limiter:  rate.NewLimiter(20, 40),
		log:      logger.Noop(),
		handlers: make(map[Channel]Handler),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Handle registers h for ch. Registering an unlisted channel is an error.
func (rt *Router) Handle(ch Channel, h Handler) error {
	if !Allowed(ch) {
		return fmt.Errorf("channel %q is not on the allow-list", ch)
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.handlers[ch] = h
	return nil
}

// Dispatch decodes payload for channel and calls its handler. It returns
// false, without calling anything, when the channel is unlisted or has no
// handler, when the payload is not a JSON object or fails validation, or
// when the rate limit is exceeded.
func (rt *Router) Dispatch(channel string, payload []byte) bool {
	ch := Channel(channel)
	newPayload, ok := allowed[ch]
	if !ok {
		rt.log.Debug("bridge: drop unlisted channel %q", channel)
		return false
	}

	rt.mu.RLock()
	h := rt.handlers[ch]
	rt.mu.RUnlock()
	if h == nil {
		rt.log.Debug("bridge: drop %s: no handler", ch)
		return false
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		rt.log.Debug("bridge: drop %s: payload is not an object", ch)
		return false
	}

	v := newPayload()
	if err := json.Unmarshal(trimmed, v); err != nil {
		rt.log.Debug("bridge: drop %s: %v", ch, err)
		return false
	}
	if err := rt.validate.Struct(v); err != nil {
		rt.log.Debug("bridge: drop %s: %v", ch, err)
		return false
	}

	if !rt.limiter.Allow() {
		rt.log.Debug("bridge: drop %s: rate limited", ch)
		return false
	}

	h(Message{Channel: ch, Payload: v})
	return true
}
