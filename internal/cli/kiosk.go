package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maltehallstrom/boka/internal/constants"
	"github.com/maltehallstrom/boka/internal/tui"
)

type KioskCmd struct {
	Mode string `help:"Interaction mode (frontdesk or selfservice). Defaults to the stored preference." enum:",frontdesk,selfservice" default:""`
}

func (c *KioskCmd) Run(ctx *Context) error {
	mode := ctx.Prefs.Mode()
	if c.Mode != "" {
		mode = constants.Mode(c.Mode)
		if err := ctx.Prefs.SetMode(mode); err != nil {
			return fmt.Errorf("persisting mode: %w", err)
		}
	}

	m := tui.NewModel(tui.Options{
		Client: ctx.Client,
		Prefs:  ctx.Prefs,
		Mode:   mode,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running kiosk: %w", err)
	}
	return nil
}
