package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Target notes
	Found   rune // ● sounding
	Missing rune // ○ not yet heard

	// Timeline strip
	Done     rune // ✓ already played
	Cursor   rune // ▶ current moment
	Upcoming rune // · still to play
	Rest     rune // - rest moment

	// Level meter
	MeterFull  rune // █
	MeterEmpty rune // ░
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Found:   '●',
			Missing: '○',

			Done:     '✓',
			Cursor:   '▶',
			Upcoming: '·',
			Rest:     '-',

			MeterFull:  '█',
			MeterEmpty: '░',
		},
	}
}

// Role names a position on the palette, 0 (background) to 1 (success)
type Role float64

const (
	RoleBG      Role = 0.0
	RoleMuted   Role = 0.2
	RoleFG      Role = 0.4
	RoleAccent  Role = 0.5
	RoleWrong   Role = 0.7
	RoleWarning Role = 0.8
	RoleSuccess Role = 1.0
)

// Color is the palette color for a role
func (t *Theme) Color(r Role) lipgloss.Color {
	return hex(t.Palette.Lookup(float64(r)))
}

// Style is a foreground style in the role's color
func (t *Theme) Style(r Role) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Color(r))
}

// Shade is the color at any point along the palette, for gradients
func (t *Theme) Shade(norm float64) lipgloss.Color {
	return hex(t.Palette.Lookup(norm))
}

func hex(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
