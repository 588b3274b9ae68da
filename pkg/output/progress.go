package output

import (
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

const progressTemplate = `{{string . "label"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{etime . }}`

// Progress shows a counter bar for long-running phases such as hashing.
// A disabled Progress accepts every call and prints nothing.
type Progress struct {
	writer  io.Writer
	enabled bool

	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewProgress creates a progress reporter writing to w
func NewProgress(w io.Writer, enabled bool) *Progress {
	return &Progress{writer: w, enabled: enabled && w != nil}
}

// IsTerminal reports whether f is attached to a terminal, the only case
// where a progress bar is worth drawing
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Start begins a new phase of total steps, finishing any previous one
func (p *Progress) Start(label string, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		p.bar.Finish()
	}
	p.bar = pb.ProgressBarTemplate(progressTemplate).New(total).
		SetWriter(p.writer).
		Set("label", label).
		Start()
}

// Increment advances the current phase by one step. It is safe to call
// from several goroutines.
func (p *Progress) Increment() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	bar := p.bar
	p.mu.Unlock()
	if bar != nil {
		bar.Increment()
	}
}

// Finish ends the current phase
func (p *Progress) Finish() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
