package dash

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/config"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/nav"
)

const voiceBody = "Voice control runs in the host application.\n" +
	"This page shows whether it is listening and the last text it spoke."

const placeholder = "--"

const aiBody = "Ask the assistant about this machine. Type a message and press Enter."

func (a *App) loaders() nav.Loaders {
	return nav.Loaders{
		Dashboard: nav.LoaderFunc(func(context.Context) (nav.Content, error) {
			return nav.Content{}, nil
		}),
		Voice: nav.LoaderFunc(func(context.Context) (nav.Content, error) {
			return nav.Content{Body: voiceBody}, nil
		}),
		System: nav.LoaderFunc(a.loadSystem),
		AI: nav.LoaderFunc(func(context.Context) (nav.Content, error) {
			return nav.Content{Body: aiBody}, nil
		}),
		Settings: nav.LoaderFunc(a.loadSettings),
	}
}

func (a *App) loadSystem(ctx context.Context) (nav.Content, error) {
	info, err := a.info.Get(ctx)
	if err != nil {
		return nav.Content{}, err
	}
	return nav.Content{Body: formatSystemInfo(info), Data: info}, nil
}

func (a *App) loadSettings(context.Context) (nav.Content, error) {
	doc, err := config.Render(a.cfg)
	if err != nil {
		return nav.Content{}, errors.WrapWithCode(err, errors.ErrRender, "Failed to render settings", "")
	}
	header := "Effective configuration"
	if a.cfg.Path != "" {
		header += " (" + a.cfg.Path + ")"
	}
	return nav.Content{Body: header + "\n\n" + doc}, nil
}

func formatSystemInfo(info backend.SystemInfo) string {
	rows := [][2]string{
		{"Hostname", info.Hostname},
		{"User", info.Username},
		{"OS", strings.TrimSpace(info.OS + " " + info.OSVersion)},
		{"Architecture", info.Architecture},
		{"Processor", info.Processor},
	}
	if !info.BootTime.IsZero() {
		rows = append(rows, [2]string{"Boot time", info.BootTime.Format(backend.BootTimeLayout)})
	}

	var b strings.Builder
	for _, r := range rows {
		v := r[1]
		if v == "" {
			v = placeholder
		}
		fmt.Fprintf(&b, "%-13s %s\n", r[0], v)
	}
	return strings.TrimRight(b.String(), "\n")
}
