package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-practice/pitch"
	"go-practice/score"
	"go-practice/theme"
)

// RenderTargets renders the notes of the current moment. Found notes are
// filled, the rest hollow. With correct set every note shows as found.
func RenderTargets(th *theme.Theme, targets []string, found map[string]bool, correct bool) string {
	if len(targets) == 0 {
		return th.Style(theme.RoleMuted).Render("Rest")
	}

	hit := th.Style(theme.RoleSuccess).Bold(true)
	miss := th.Style(theme.RoleFG)

	parts := make([]string, len(targets))
	for i, n := range targets {
		if correct || found[n] {
			parts[i] = hit.Render(fmt.Sprintf("%c %s", th.Symbols.Found, n))
		} else {
			parts[i] = miss.Render(fmt.Sprintf("%c %s", th.Symbols.Missing, n))
		}
	}
	return strings.Join(parts, "  ")
}

// RenderHeard shows a wrong note with how far off its pitch was, when the
// frequency is known
func RenderHeard(th *theme.Theme, note string, freq float64) string {
	text := "heard " + note
	if cents, ok := pitch.Cents(freq); ok && freq > 0 {
		text += fmt.Sprintf(" %+.0f¢", cents)
	}
	return th.Style(theme.RoleWrong).Render(text)
}

// RenderProgress shows how many of the size frames needed to confirm a
// chord have been held so far
func RenderProgress(th *theme.Theme, streak, size int) string {
	if size <= 0 {
		return ""
	}
	streak = max(0, min(streak, size))
	held := th.Style(theme.RoleSuccess).Render(strings.Repeat(string(th.Symbols.MeterFull), streak))
	left := th.Style(theme.RoleMuted).Render(strings.Repeat(string(th.Symbols.MeterEmpty), size-streak))
	return fmt.Sprintf("hold %s%s %d/%d", held, left, streak, size)
}

// RenderTimeline renders one cell per moment in a window of width cells
// around index: played, current, upcoming, rests dimmed.
func RenderTimeline(th *theme.Theme, sc *score.Score, index, width int) string {
	n := sc.Len()
	if n == 0 || width <= 0 {
		return ""
	}

	start := index - width/2
	if start > n-width {
		start = n - width
	}
	if start < 0 {
		start = 0
	}
	end := min(start+width, n)

	done := th.Style(theme.RoleMuted)
	cursor := th.Style(theme.RoleAccent).Bold(true)
	upcoming := th.Style(theme.RoleFG)

	var out strings.Builder
	if start > 0 {
		out.WriteString(done.Render("…"))
	}
	for i := start; i < end; i++ {
		rest := len(sc.TargetNotes(i)) == 0
		switch {
		case i == index:
			out.WriteString(cursor.Render(string(th.Symbols.Cursor)))
		case rest:
			out.WriteString(done.Render(string(th.Symbols.Rest)))
		case i < index:
			out.WriteString(done.Render(string(th.Symbols.Done)))
		default:
			out.WriteString(upcoming.Render(string(th.Symbols.Upcoming)))
		}
	}
	if end < n {
		out.WriteString(done.Render("…"))
	}
	return out.String()
}

// RenderMeter renders an input level bar on a log scale from 10 to 32768.
// The cell where threshold falls is marked so the gate is visible.
func RenderMeter(th *theme.Theme, level, threshold float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := meterCells(level, width)
	mark := meterCells(threshold, width)

	var out strings.Builder
	for i := 0; i < width; i++ {
		norm := float64(i) / float64(width)
		switch {
		case i < filled:
			style := lipgloss.NewStyle().Foreground(th.Shade(0.4 + 0.6*norm))
			out.WriteString(style.Render(string(th.Symbols.MeterFull)))
		case i == mark:
			out.WriteString(th.Style(theme.RoleWarning).Render("|"))
		default:
			out.WriteString(th.Style(theme.RoleMuted).Render(string(th.Symbols.MeterEmpty)))
		}
	}
	return out.String()
}

const (
	meterFloor = 10.0
	meterCeil  = 32768.0
)

func meterCells(v float64, width int) int {
	if v <= meterFloor {
		return 0
	}
	norm := math.Log(v/meterFloor) / math.Log(meterCeil/meterFloor)
	if norm > 1 {
		norm = 1
	}
	return int(math.Round(norm * float64(width)))
}
