package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	model := tui.NewModel(ctx.Ctx, tui.Deps{
		Repo:          ctx.Repo,
		Scheduler:     ctx.Scheduler,
		Notifications: ctx.Notifications,
		Metrics:       ctx.Metrics,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	_, err := p.Run()
	return err
}
