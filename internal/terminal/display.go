// Package terminal owns the per-step terminal line: a transient indicator while
// a command runs, then either a collapsed success line or a visible failure block.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/bgricker/getset/internal/output"
)

// Display is the two-phase writer driven once per step.
type Display interface {
	// BeginTransient shows a running indicator for title. detail, when non-empty,
	// is shown beneath it. The returned writer receives the command's live output.
	BeginTransient(title, detail string) io.Writer
	// CollapseToSuccess erases the transient region and prints one success line.
	CollapseToSuccess(title string, elapsed time.Duration, showDuration bool)
	// KeepVisibleAsFailure leaves all output in place and appends a failure marker.
	KeepVisibleAsFailure(title string, exitCode int, elapsed time.Duration)
}

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"

	cursorUp  = "\033[1A"
	clearLine = "\033[2K"
)

// Detect picks an Interactive display when f is a terminal and plain is false.
func Detect(f *os.File, plain, color bool) Display {
	fd := int(f.Fd())
	if plain || !term.IsTerminal(fd) {
		return NewPlain(f)
	}
	return NewInteractive(f, InteractiveOptions{
		Color: color,
		Width: func() int {
			w, _, err := term.GetSize(fd)
			if err != nil {
				return 0
			}
			return w
		},
	})
}

type palette struct {
	enabled bool
}

func (p palette) wrap(code, s string) string {
	if !p.enabled {
		return s
	}
	return code + s + ansiReset
}

func successLine(p palette, title string, elapsed time.Duration, showDuration bool) string {
	line := p.wrap(ansiGreen, "✓") + " " + p.wrap(ansiBold, title)
	if showDuration {
		line += " " + p.wrap(ansiDim, "("+output.Seconds(elapsed)+")")
	}
	return line + "\n"
}

func failureLine(p palette, title string, exitCode int) string {
	return p.wrap(ansiRed, "✗") + " " + p.wrap(ansiBold, title) + " " + p.wrap(ansiDim, fmt.Sprintf("(exit %d)", exitCode)) + "\n"
}

func detailBlock(p palette, detail string) string {
	detail = strings.TrimRight(detail, "\n")
	if detail == "" {
		return ""
	}
	return p.wrap(ansiDim, detail) + "\n"
}

// Plain never rewrites earlier output. It suits CI logs and redirected output.
type Plain struct {
	out io.Writer
	pal palette
}

// NewPlain creates a Plain display writing to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

// BeginTransient prints a header for the step.
func (p *Plain) BeginTransient(title, detail string) io.Writer {
	fmt.Fprintf(p.out, "===> %s\n", title)
	fmt.Fprint(p.out, detailBlock(p.pal, detail))
	return p.out
}

// CollapseToSuccess prints the success line below whatever the step wrote.
func (p *Plain) CollapseToSuccess(title string, elapsed time.Duration, showDuration bool) {
	fmt.Fprint(p.out, successLine(p.pal, title, elapsed, showDuration))
}

// KeepVisibleAsFailure prints the failure line.
func (p *Plain) KeepVisibleAsFailure(title string, exitCode int, _ time.Duration) {
	fmt.Fprint(p.out, failureLine(p.pal, title, exitCode))
}

// InteractiveOptions tune an Interactive display.
type InteractiveOptions struct {
	Color bool
	// Width reports the terminal width in columns; zero disables wrap tracking.
	Width    func() int
	Now      func() time.Time
	Interval time.Duration
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interactive animates a spinner and erases successful steps with ANSI cursor control.
type Interactive struct {
	out  io.Writer
	pal  palette
	opts InteractiveOptions

	mu       sync.Mutex
	title    string
	started  time.Time
	frame    int
	streamed bool
	rows     int
	col      int
	inEscape bool
	pending  []byte
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewInteractive creates an Interactive display writing to out.
func NewInteractive(out io.Writer, opts InteractiveOptions) *Interactive {
	if opts.Width == nil {
		opts.Width = func() int { return 0 }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	return &Interactive{out: out, pal: palette{enabled: opts.Color}, opts: opts}
}

// BeginTransient draws the spinner line and starts animating it.
func (d *Interactive) BeginTransient(title, detail string) io.Writer {
	d.mu.Lock()
	d.title = title
	d.started = d.opts.Now()
	d.frame = 0
	d.streamed = false
	d.rows = 0
	d.col = 0
	d.inEscape = false
	d.pending = nil
	d.drawIndicator()
	stop := make(chan struct{})
	d.stop = stop
	d.mu.Unlock()

	d.wg.Add(1)
	go d.spin(stop)

	if block := detailBlock(d.pal, detail); block != "" {
		_, _ = io.WriteString(d, block)
	}
	return d
}

// Write forwards live output, tracking how many rows it occupies.
func (d *Interactive) Write(p []byte) (int, error) {
	d.stopSpinner()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.streamed {
		d.streamed = true
		fmt.Fprint(d.out, "\n")
		d.rows = 1
	}
	d.track(p)
	return d.out.Write(p)
}

// CollapseToSuccess erases the indicator and any streamed rows.
func (d *Interactive) CollapseToSuccess(title string, elapsed time.Duration, showDuration bool) {
	d.stopSpinner()

	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	b.WriteString("\r" + clearLine)
	for i := 0; i < d.rows; i++ {
		b.WriteString(cursorUp + clearLine)
	}
	b.WriteString(successLine(d.pal, title, elapsed, showDuration))
	fmt.Fprint(d.out, b.String())
	d.reset()
}

// KeepVisibleAsFailure ends any partial row and appends the failure line.
func (d *Interactive) KeepVisibleAsFailure(title string, exitCode int, _ time.Duration) {
	d.stopSpinner()

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case !d.streamed:
		fmt.Fprint(d.out, "\r"+clearLine)
	case d.col > 0:
		fmt.Fprint(d.out, "\n")
	}
	fmt.Fprint(d.out, failureLine(d.pal, title, exitCode))
	d.reset()
}

func (d *Interactive) reset() {
	d.title = ""
	d.streamed = false
	d.rows = 0
	d.col = 0
	d.inEscape = false
	d.pending = nil
}

func (d *Interactive) spin(stop chan struct{}) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			if d.stop == stop && !d.streamed {
				d.frame++
				d.drawIndicator()
			}
			d.mu.Unlock()
		}
	}
}

func (d *Interactive) stopSpinner() {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
}

// drawIndicator must be called with mu held.
func (d *Interactive) drawIndicator() {
	frame := spinnerFrames[d.frame%len(spinnerFrames)]
	elapsed := d.opts.Now().Sub(d.started).Truncate(time.Second)
	fmt.Fprintf(d.out, "\r%s%s %s %s", clearLine, d.pal.wrap(ansiDim, frame), d.pal.wrap(ansiBold, d.title), d.pal.wrap(ansiDim, "("+elapsed.String()+")"))
}

// track counts row transitions for later erasure. Escape sequences take no
// columns; other runes take their display width. A rune split across writes is
// held in pending until the rest arrives.
func (d *Interactive) track(p []byte) {
	width := d.opts.Width()
	buf := append(d.pending, p...)
	d.pending = nil
	for i := 0; i < len(buf); {
		c := buf[i]
		switch {
		case d.inEscape:
			if c >= 0x40 && c <= 0x7e && c != '[' {
				d.inEscape = false
			}
		case c == 0x1b:
			d.inEscape = true
		case c == '\n':
			d.rows++
			d.col = 0
		case c == '\r':
			d.col = 0
		case c < utf8.RuneSelf:
			d.advance(1, width)
		default:
			if !utf8.FullRune(buf[i:]) {
				d.pending = append([]byte(nil), buf[i:]...)
				return
			}
			r, size := utf8.DecodeRune(buf[i:])
			d.advance(runewidth.RuneWidth(r), width)
			i += size
			continue
		}
		i++
	}
}

func (d *Interactive) advance(w, width int) {
	if w == 0 {
		return
	}
	d.col += w
	if width > 0 && d.col > width {
		d.rows++
		d.col = w
	}
}
