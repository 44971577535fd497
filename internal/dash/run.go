package dash

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts app, runs the full-screen program until the user quits or
// ctx is cancelled, then stops app.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(NewModel(app), tea.WithAltScreen(), tea.WithContext(ctx))

	app.Start(ctx, p.Send)
	defer app.Stop()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
