package habits

import (
	"github.com/julianstephens/habitual/internal/chart"
	"github.com/julianstephens/habitual/internal/cli"
)

const (
	chartWidth  = 60
	chartHeight = 12
)

type ChartCmd struct {
	Name   string `arg:"" help:"Habit name or id."`
	Width  int    `help:"Plot width in columns." default:"60"`
	Height int    `help:"Plot height in rows." default:"12"`
}

func (c *ChartCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Name)
	if err != nil {
		return err
	}
	ctx.Printf("%s (%d sessions)\n\n", habit.Name, len(habit.Sessions))
	ctx.Println(chart.Render(habit.Sessions, c.Width, c.Height))
	return nil
}
