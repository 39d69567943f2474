package broadcast

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/text"
	"github.com/mattn/go-isatty"
)

// NewAuto creates a Broadcast that colorizes log output only when fd is
// an interactive terminal (spec §6 "color is informational and must not
// be parsed by consumers" — so it is safe, and more useful, to omit it
// entirely on a redirected/piped sink).
func NewAuto(fd *os.File) *Broadcast {
	return New(isatty.IsTerminal(fd.Fd()) || isatty.IsCygwinTerminal(fd.Fd()))
}

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiCyan   = "\x1b[36m"
)

// colorizeLog applies an informational color based on the line's
// content: errors red, warnings yellow, cycle markers cyan, everything
// else green. Spec §6 is explicit that color carries no semantics a
// consumer may rely on — this is purely cosmetic.
func colorizeLog(line string) string {
	switch {
	case strings.Contains(line, "Error") || strings.Contains(line, "error"):
		return ansiRed + line + ansiReset
	case strings.Contains(line, "Warning"):
		return ansiYellow + line + ansiReset
	case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "==="):
		return ansiCyan + line + ansiReset
	default:
		return ansiGreen + line + ansiReset
	}
}

// wrapWidth is the terminal width assumed for wrapping long structured
// error messages (spec §10.2's kr/text wiring). 100 matches the
// teacher's own formatter line-length conventions.
const wrapWidth = 100

// WrapError formats a structured error for the log, wrapping long
// messages to wrapWidth.
func WrapError(opLabel string, err error) string {
	msg := fmt.Sprintf("Error in %s: %v", opLabel, err)
	return text.Wrap(msg, wrapWidth)
}

// HumanizeElapsed renders a wall-clock duration the way watchdog/pause
// log lines do, e.g. "812 µs", "1.2 s" — via go-humanize's SI-prefixed
// scaling rather than hand-rolled unit selection.
func HumanizeElapsed(d time.Duration) string {
	seconds := d.Seconds()
	return humanize.SI(seconds, "s")
}
