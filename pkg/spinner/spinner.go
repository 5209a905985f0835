package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	frameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Spinner renders an animated progress indicator on one terminal line.
// It writes to stderr by default so stdout stays clean for report output.
type Spinner struct {
	frames  []string
	delay   time.Duration
	out     io.Writer
	mu      sync.Mutex
	message string
	active  bool
	done    chan struct{}
}

func New(message string) *Spinner {
	return &Spinner{
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:   100 * time.Millisecond,
		out:     os.Stderr,
		message: message,
	}
}

// SetOutput redirects the spinner, mainly for tests.
func (s *Spinner) SetOutput(out io.Writer) {
	s.mu.Lock()
	s.out = out
	s.mu.Unlock()
}

func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.delay)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.active {
					fmt.Fprintf(s.out, "\r%s %s", frameStyle.Render(s.frames[i%len(s.frames)]), s.message)
				}
				s.mu.Unlock()
				i++
			}
		}
	}()
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and replaces the spinner line with final, or
// just clears the line when final is empty.
func (s *Spinner) Stop(final string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)

	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	if final != "" {
		fmt.Fprintf(s.out, "%s %s\n", doneStyle.Render("✓"), final)
	}
	s.mu.Unlock()
}
