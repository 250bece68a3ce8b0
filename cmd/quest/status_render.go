package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/stevendeporre123/quest-app/internal/progress"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct{ tag, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func (k statusKind) tag() string {
	if style, ok := statusStyles[k]; ok {
		return style.tag
	}
	return statusStyles[statusInfo].tag
}

func (k statusKind) color() string {
	return statusStyles[k].color
}

// renderStatusLine prints "label: [TAG] message" with the label padded so
// consecutive lines line up.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	badge := "[" + kind.tag() + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", badge)
	if colorize && kind.color() != "" {
		return kind.color() + line + ansiReset
	}
	return line
}

// stateKind colours both meeting states and question states.
func stateKind(state string) statusKind {
	switch state {
	case string(progress.StateCompleted), string(queue.StatusDone):
		return statusOK
	case string(progress.StateCompletedWithErrors), string(queue.StatusError):
		return statusError
	case string(progress.StateInProgress):
		return statusWarn
	default:
		return statusInfo
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	underline := strings.Repeat("-", len(heading))
	if !colorize {
		return []string{heading, underline}
	}
	return []string{ansiBlue + heading + ansiReset, ansiBlue + underline + ansiReset}
}

// shouldColorize reports whether w is an interactive terminal. NO_COLOR
// disables colour regardless.
func shouldColorize(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
