// Package progress renders download/upload progress into an editable chat
// message. Reporting is best-effort: edit failures are swallowed and edits
// are throttled so high-frequency engine callbacks cannot trip Telegram's
// rate limits.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	barSegments  = 10
	editInterval = 3 * time.Second
)

const (
	PhaseDownloading = "⬇️ Downloading"
	PhaseUploading   = "📤 Uploading..."
)

// Sink receives byte-level progress for one phase of a job.
type Sink interface {
	Report(current, total int64, phase string)
}

// Reporter edits a single status message in place. The edit func is wired to
// the chat transport by the caller.
type Reporter struct {
	edit    func(text string) error
	limiter *rate.Limiter
}

func NewReporter(edit func(text string) error) *Reporter {
	return &Reporter{
		edit:    edit,
		limiter: rate.NewLimiter(rate.Every(editInterval), 1),
	}
}

// Report renders a 10-segment bar and pushes it to the status message.
// Unknown totals are ignored; a failed or throttled edit drops the update.
func (r *Reporter) Report(current, total int64, phase string) {
	if total <= 0 {
		return
	}
	if !r.limiter.Allow() {
		return
	}
	percent := float64(current) * 100 / float64(total)
	_ = r.edit(fmt.Sprintf("%s\n`%s` %.1f%%", phase, Bar(percent), percent))
}

// Bar renders the textual progress bar, filled one segment per 10%.
func Bar(percent float64) string {
	filled := int(percent / 10)
	if filled > barSegments {
		filled = barSegments
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", barSegments-filled)
}

// Reader wraps an upload stream and reports cumulative bytes against a known
// total as the transport drains it.
type Reader struct {
	Source io.Reader
	Total  int64
	Sink   Sink
	Phase  string

	read int64
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.Source.Read(p)
	r.read += int64(n)
	if r.Sink != nil {
		r.Sink.Report(r.read, r.Total, r.Phase)
	}
	return n, err
}
