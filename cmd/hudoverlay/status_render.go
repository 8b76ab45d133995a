package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"hudoverlay/internal/daemonctl"
	"hudoverlay/internal/ipc"
)

// health grades a single status line.
type health int

const (
	healthInfo health = iota
	healthOK
	healthWarn
	healthFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var healthStyles = [...]struct{ tag, color string }{
	healthInfo: {"INFO", ansiBlue},
	healthOK:   {"OK", ansiGreen},
	healthWarn: {"WARN", ansiYellow},
	healthFail: {"FAIL", ansiRed},
}

const statusLabelWidth = 18

type statusLine struct {
	label  string
	health health
	detail string
}

func (l statusLine) render(colorize bool) string {
	style := healthStyles[l.health]
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, l.label+":", style.tag)
	if l.detail != "" {
		text += " " + l.detail
	}
	if colorize {
		return style.color + text + ansiReset
	}
	return text
}

func writeSectionTitle(out io.Writer, title string, colorize bool) {
	rule := strings.Repeat("-", len(title))
	if colorize {
		title, rule = ansiBlue+title+ansiReset, ansiBlue+rule+ansiReset
	}
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, rule)
}

func writeSection(out io.Writer, title string, lines []statusLine, colorize bool) {
	writeSectionTitle(out, title, colorize)
	for _, line := range lines {
		fmt.Fprintln(out, line.render(colorize))
	}
}

// colorEnabled honors NO_COLOR and only colors real terminals.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderStatus(out io.Writer, snap *daemonctl.StatusSnapshot, colorize bool) {
	writeSection(out, "Daemon", daemonLines(snap), colorize)
	fmt.Fprintln(out)
	writeSection(out, "Renderer", rendererLines(snap), colorize)
	fmt.Fprintln(out)
	writeSection(out, "Fonts", fontLines(snap), colorize)

	if !snap.DaemonReachable {
		return
	}
	fmt.Fprintln(out)
	writeSectionTitle(out, "Clients", colorize)
	if len(snap.Daemon.Clients) == 0 {
		fmt.Fprintln(out, "No overlay clients yet")
		return
	}
	fmt.Fprint(out, renderTable(
		[]string{"Owner", "Token", "Health", "Sent", "Failed", "Dropped", "Pending"},
		clientRows(snap.Daemon.Clients),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintln(out)
}

func daemonLines(snap *daemonctl.StatusSnapshot) []statusLine {
	if !snap.DaemonReachable {
		return []statusLine{{"Daemon", healthFail, "Not running; run `hudoverlay start`"}}
	}
	d := snap.Daemon
	var lines []statusLine
	if d.Running {
		detail := fmt.Sprintf("Running (pid %d)", d.PID)
		if !d.StartedAt.IsZero() {
			detail += " since " + d.StartedAt.Local().Format(time.DateTime)
		}
		lines = append(lines, statusLine{"Daemon", healthOK, detail})
	} else {
		lines = append(lines, statusLine{"Daemon", healthWarn, fmt.Sprintf("Idle (pid %d)", d.PID)})
	}
	configPath := d.ConfigPath
	if configPath == "" {
		configPath = "defaults"
	}
	lines = append(lines,
		statusLine{"Config", healthInfo, fmt.Sprintf("%s (reloads %d)", configPath, d.Reloads)},
		statusLine{"Debug logging", healthInfo, yesNo(d.Debug)},
	)
	if d.LogPath != "" {
		lines = append(lines, statusLine{"Log", healthInfo, d.LogPath})
	}
	return lines
}

func rendererLines(snap *daemonctl.StatusSnapshot) []statusLine {
	var lines []statusLine
	if snap.RendererError != "" {
		lines = append(lines, statusLine{"Command", healthFail, snap.RendererError})
	} else {
		lines = append(lines, statusLine{"Command", healthOK, strings.Join(snap.RendererCommand, " ")})
	}
	if snap.RendererReachable {
		lines = append(lines, statusLine{"Endpoint", healthOK, snap.RendererAddress + " accepting connections"})
	} else {
		lines = append(lines, statusLine{"Endpoint", healthWarn, snap.RendererAddress + " not reachable"})
	}
	if snap.DaemonReachable {
		grade, detail := rendererHealth(snap.Daemon.Renderer)
		lines = append(lines, statusLine{"Supervised", grade, detail})
	}
	return lines
}

// rendererHealth grades the supervised process. A renderer that has run
// before but is gone now is a warning: the next draw relaunches it.
func rendererHealth(r ipc.RendererStatus) (health, string) {
	switch {
	case r.Alive:
		return healthOK, fmt.Sprintf("%s (pid %d), %d launches", r.State, r.PID, r.Launches)
	case r.Launches > 0:
		return healthWarn, fmt.Sprintf("%s after %d launches; the next draw relaunches it", r.State, r.Launches)
	default:
		return healthInfo, "not started; the first draw launches it"
	}
}

func fontLines(snap *daemonctl.StatusSnapshot) []statusLine {
	return []statusLine{
		{"Normal", healthInfo, strconv.Itoa(snap.Fonts.Normal)},
		{"Large", healthInfo, strconv.Itoa(snap.Fonts.Large)},
		{"Owner overrides", healthInfo, strconv.Itoa(snap.Fonts.Overrides)},
	}
}

// clientHealth summarizes delivery for one owner. Lost frames outrank a
// backlog.
func clientHealth(c ipc.ClientStatus) string {
	switch {
	case c.Failed > 0 || c.Dropped > 0:
		return "lossy"
	case c.Pending > 0:
		return "backlog"
	default:
		return "ok"
	}
}

func clientRows(clients []ipc.ClientStatus) [][]string {
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			c.Owner,
			c.Token,
			clientHealth(c),
			strconv.FormatInt(c.Sent, 10),
			strconv.FormatInt(c.Failed, 10),
			strconv.FormatInt(c.Dropped, 10),
			strconv.Itoa(c.Pending),
		})
	}
	return rows
}
