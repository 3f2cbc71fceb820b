package habits

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/chart"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/timer"
	timerview "github.com/julianstephens/habitual/internal/tui/components/timer"
)

type SessionCmd struct {
	Start SessionStartCmd `cmd:"" help:"Time a session of a habit." default:"withargs"`
}

type SessionStartCmd struct {
	Name string `arg:"" help:"Habit name or id."`
}

func (c *SessionStartCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Name)
	if err != nil {
		return err
	}

	view := timerview.New()
	view.Open(habit, timer.NewSession(habit.ID, ctx.Repo, ctx.Metrics))

	final, err := tea.NewProgram(sessionModel{timer: view}).Run()
	if err != nil {
		return err
	}

	m := final.(sessionModel)
	if m.saved != nil {
		if m.saved.Err != nil {
			return m.saved.Err
		}
		ctx.Printf("Saved %s session for %s\n", timer.FormatTime(m.saved.Seconds), habit.Name)
	}
	if m.showChart {
		updated, err := ctx.Repo.Get(habit.ID)
		if err != nil {
			return err
		}
		ctx.Println(chart.Render(updated.Sessions, chartWidth, chartHeight))
	}
	return nil
}

// sessionModel runs the timer view on its own. Stopping a running session
// saves it and exits.
type sessionModel struct {
	timer     timerview.Model
	saved     *timerview.SessionSavedMsg
	showChart bool
}

func (m sessionModel) Init() tea.Cmd {
	return m.timer.Init()
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.timer.Close()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.timer.SetSize(msg.Width, msg.Height)
		return m, nil
	case timerview.SessionSavedMsg:
		m.saved = &msg
		return m, tea.Quit
	case timerview.ShowChartMsg:
		m.showChart = true
		return m, tea.Quit
	case timerview.CloseMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.timer, cmd = m.timer.Update(msg)
	return m, cmd
}

func (m sessionModel) View() string {
	return m.timer.View()
}
