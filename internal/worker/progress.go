package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Progress tracks and draws batch progress on a single terminal line.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker writing to stderr when enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// Update records the completion of a task.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

func (p *Progress) snapshot() (completed, total, failed int, elapsed time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed, p.total, p.failed, time.Since(p.startTime)
}

// Print draws the current progress line.
func (p *Progress) Print() {
	completed, total, failed, elapsed := p.snapshot()

	var eta time.Duration
	if completed > 0 && completed < total {
		perImage := elapsed / time.Duration(completed)
		eta = perImage * time.Duration(total-completed)
	}

	const barWidth = 30
	filled := 0
	if total > 0 {
		filled = completed * barWidth / total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var sb strings.Builder
	fmt.Fprintf(&sb, "\r[%s] %d/%d images", bar, completed, total)
	if failed > 0 {
		fmt.Fprintf(&sb, " (%d failed)", failed)
	}
	if eta > 0 {
		fmt.Fprintf(&sb, " - ETA: %s", formatDuration(eta))
	}
	if completed == total {
		fmt.Fprintf(&sb, " - Done in %s", formatDuration(elapsed))
	}
	sb.WriteString("          ")

	fmt.Fprint(p.output, sb.String())
}

// Done prints the final line and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the finished batch.
func (p *Progress) Summary() string {
	completed, total, failed, elapsed := p.snapshot()
	return fmt.Sprintf("Wore %s/%s images (%d failed) in %s",
		humanize.Comma(int64(completed-failed)), humanize.Comma(int64(total)), failed, formatDuration(elapsed))
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
