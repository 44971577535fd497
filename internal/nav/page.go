package nav

import (
	"context"
	"fmt"
	"strings"
)

// Page identifies one of the application pages.
type Page int

const (
	Dashboard Page = iota
	Voice
	System
	AI
	Settings
)

// Pages lists every page in page-bar order.
var Pages = []Page{Dashboard, Voice, System, AI, Settings}

func (p Page) String() string {
	switch p {
	case Dashboard:
		return "dashboard"
	case Voice:
		return "voice"
	case System:
		return "system"
	case AI:
		return "ai"
	case Settings:
		return "settings"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

// Title is the heading shown in the page bar.
func (p Page) Title() string {
	switch p {
	case Dashboard:
		return "Dashboard"
	case Voice:
		return "Voice"
	case System:
		return "System"
	case AI:
		return "AI Assistant"
	case Settings:
		return "Settings"
	default:
		return p.String()
	}
}

// Next returns the page after p in Pages, wrapping around.
func (p Page) Next() Page {
	return Pages[(int(p)+1)%len(Pages)]
}

// ParsePage parses a page name as written in config.
func ParsePage(s string) (Page, error) {
	for _, p := range Pages {
		if strings.EqualFold(strings.TrimSpace(s), p.String()) {
			return p, nil
		}
	}
	return Dashboard, fmt.Errorf("unknown page %q", s)
}

// Content is a loaded page.
type Content struct {
	Page  Page
	Title string
	Body  string
	// Data carries page-specific values for the renderer.
	Data any
}

// Loader builds the content of one page.
type Loader interface {
	Load(ctx context.Context) (Content, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Content, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (Content, error) { return f(ctx) }

// Loaders holds one loader per page.
type Loaders struct {
	Dashboard Loader
	Voice     Loader
	System    Loader
	AI        Loader
	Settings  Loader
}

// For selects the loader for p. It returns nil for an unknown page or an
// unset loader.
func (l Loaders) For(p Page) Loader {
	switch p {
	case Dashboard:
		return l.Dashboard
	case Voice:
		return l.Voice
	case System:
		return l.System
	case AI:
		return l.AI
	case Settings:
		return l.Settings
	}
	return nil
}
