package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Renderer writes briefings and diagnostics as text. Styling only shows up
// when out is a terminal.
type Renderer struct {
	out     io.Writer
	heading lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func NewRenderer(out io.Writer) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:     out,
		heading: r.NewStyle().Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func (r *Renderer) Welcome() {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.heading.Render("🌤️   Fetching weather for your daily briefing ..."))
	fmt.Fprintln(r.out)
}

func (r *Renderer) Warnf(format string, args ...any) {
	fmt.Fprintln(r.out, r.warning.Render("[WARNING] "+fmt.Sprintf(format, args...)))
}

func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.out, r.failure.Render("[ERROR] "+fmt.Sprintf(format, args...)))
}

// Render prints current conditions, the clamp warning when fewer days are
// available than requested, and one block per day.
func (r *Renderer) Render(b *Briefing) {
	units := b.Units

	if b.Location != "" {
		fmt.Fprintln(r.out, r.heading.Render("📍  "+b.Location))
	}
	fmt.Fprintf(r.out, "🌡️  Current Temp:\t%s (feels like %s)\n", FormatTemp(b.CurrentTemp, units), FormatTemp(b.CurrentFeelsLike, units))
	fmt.Fprintln(r.out)

	if b.CurrentTemp == nil || b.CurrentFeelsLike == nil {
		r.Warnf("Current conditions are incomplete")
	}

	if b.Clamped() {
		r.Warnf("Only %d days of forecast available. Showing %d-day forecast.", b.AvailableDays, b.AvailableDays)
		fmt.Fprintln(r.out)
	}

	for _, day := range b.Days {
		if !day.Umbrella.Known {
			r.Warnf("%s: %v", day.Label, day.Umbrella.Reason)
		}

		fmt.Fprintln(r.out, r.heading.Render("📅  "+day.Label))
		fmt.Fprintf(r.out, "🌡️  High Temp:\t\t%s\n", FormatTemp(day.High, units))
		fmt.Fprintf(r.out, "❄️   Low Temp:\t\t%s\n", FormatTemp(day.Low, units))
		fmt.Fprintf(r.out, "💨  Feels Like:\t\t%s\n", FormatTemp(day.FeelsLike, units))
		fmt.Fprintf(r.out, "☂️   Pack Umbrella:\t%s\n", day.Summary)
		fmt.Fprintln(r.out)
	}
}
