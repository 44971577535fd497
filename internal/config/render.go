package config

import (
	"gopkg.in/yaml.v3"
)

// Render returns the effective configuration as YAML, with durations written
// the way they are accepted in the file ("5s", "300ms").
func Render(cfg *Config) (string, error) {
	doc := map[string]any{
		"backend": map[string]any{
			"url":     cfg.Backend.URL,
			"timeout": cfg.Backend.Timeout.String(),
		},
		"poll": map[string]any{
			"health":    cfg.Poll.Health.String(),
			"metrics":   cfg.Poll.Metrics.String(),
			"processes": cfg.Poll.Processes.String(),
		},
		"history": map[string]any{
			"size": cfg.History.Size,
		},
		"processes": map[string]any{
			"limit": cfg.Processes.Limit,
			"sort":  cfg.Processes.Sort,
		},
		"notify": map[string]any{
			"ttl":   cfg.Notify.TTL.String(),
			"grace": cfg.Notify.Grace.String(),
		},
		"nav": map[string]any{
			"delay":      cfg.Nav.Delay.String(),
			"start_page": cfg.Nav.StartPage,
		},
		"refresh": map[string]any{
			"rate": cfg.Refresh.Rate,
		},
		"log": map[string]any{
			"file":  cfg.Log.File,
			"level": cfg.Log.Level,
		},
		"devserver": map[string]any{
			"addr":       cfg.DevServer.Addr,
			"allow_kill": cfg.DevServer.AllowKill,
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
