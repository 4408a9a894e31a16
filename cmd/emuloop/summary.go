package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/valerio/go-emuloop/emuloop"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	warn  lipgloss.Style
	box   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(4)).Padding(0, 1),
		label: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)).Width(12),
		value: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		warn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3)),
		box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.ANSIColor(4)).Padding(0, 1),
	}
}

// statusLine is the one line status shown by frontends.
func statusLine(st emuloop.Stats) string {
	if st.Session == "" {
		return fmt.Sprintf(" %s | no session ", st.State)
	}
	skip := "auto"
	if !st.Pacing.AutoFrameSkip {
		skip = "fixed"
	}
	return fmt.Sprintf(" %s | %s @ %d Hz | %.1f fps shown, %.1f simulated | skip %s/%d ",
		st.State, st.Session, st.FPS, st.PresentedFPS, st.SimulatedFPS, skip, st.Pacing.MaxFrameSkips)
}

// renderSummary formats the end of run report.
func renderSummary(st emuloop.Stats, elapsed time.Duration) string {
	s := newStyles()

	row := func(label, value string, style lipgloss.Style) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(label), style.Render(value))
	}

	skipped := s.value
	if st.Frames > 0 && st.Skipped*2 > st.Frames {
		skipped = s.warn
	}

	rows := []string{
		s.title.Render("emuloop"),
		row("session", orNone(st.Session), s.value),
		row("elapsed", elapsed.Round(time.Millisecond).String(), s.value),
		row("frames", fmt.Sprint(st.Frames), s.value),
		row("presented", fmt.Sprint(st.Presented), s.value),
		row("skipped", fmt.Sprint(st.Skipped), skipped),
		row("frame skip", fmt.Sprintf("auto=%t max=%d", st.Pacing.AutoFrameSkip, st.Pacing.MaxFrameSkips), s.value),
	}
	return s.box.Render(strings.Join(rows, "\n"))
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
