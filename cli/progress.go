package cli

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressReporter renders network operation progress on a single line.
type ProgressReporter struct {
	mu    sync.Mutex
	start time.Time
	width int
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		start: time.Now(),
		width: 30,
	}
}

// Update redraws the progress line for the current phase. fraction is the
// operation-level fraction in [0, 1], already weighted across phases.
func (p *ProgressReporter) Update(operation, phase string, fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	filled := int(fraction * float64(p.width))
	if filled > p.width {
		filled = p.width
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", p.width-filled)
	fmt.Printf("\r%s [%s] %3.0f%% (%s)", operation, bar, fraction*100, phase)
}

// Done finishes the progress line with the elapsed time.
func (p *ProgressReporter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.start).Round(time.Millisecond)
	fmt.Printf("\nCompleted in %s\n", elapsed)
}
