// Package timing provides simple phase timing for the --timing report.
package timing

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Timer tracks durations of named phases.
type Timer struct {
	title  string
	start  time.Time
	phases []Phase
}

// Phase represents a timed phase with name and duration.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a new Timer starting from now. title heads the report.
func New(title string) *Timer {
	return &Timer{title: title, start: time.Now()}
}

// Mark records a named phase ending now.
// Duration is time since last mark (or since start if first mark).
func (t *Timer) Mark(name string) {
	if t == nil {
		return
	}
	elapsed := time.Since(t.start)
	t.phases = append(t.phases, Phase{Name: name, Duration: elapsed - t.totalDuration()})
}

// Total returns the total elapsed time since timer creation.
func (t *Timer) Total() time.Duration {
	return time.Since(t.start)
}

// Phases returns all recorded phases.
func (t *Timer) Phases() []Phase {
	return t.phases
}

// Report prints a timing report to the given writer. A nil Timer prints
// nothing, so callers can keep one unconditionally.
func (t *Timer) Report(w io.Writer) {
	if t == nil {
		return
	}
	header := fmt.Sprintf("=== %s Timing ===", t.title)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, header)
	for _, p := range t.phases {
		fmt.Fprintf(w, "  %-20s %s\n", p.Name+":", formatDuration(p.Duration))
	}
	fmt.Fprintf(w, "  %-20s %s\n", "TOTAL:", formatDuration(t.Total()))
	fmt.Fprintln(w, strings.Repeat("=", len(header)))
}

// totalDuration returns the sum of all phase durations.
func (t *Timer) totalDuration() time.Duration {
	var total time.Duration
	for _, p := range t.phases {
		total += p.Duration
	}
	return total
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
