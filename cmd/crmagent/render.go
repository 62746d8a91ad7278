package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"crmagent/internal/api"
	"crmagent/internal/campaign"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiDim    = "\x1b[2m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stageColor(stage campaign.Stage) string {
	switch stage {
	case campaign.StageError:
		return ansiRed
	case campaign.StageFinish:
		return ansiGreen
	case campaign.StageConnected, campaign.StageClosed:
		return ansiDim
	case campaign.StageDecide, campaign.StageRender:
		return ansiYellow
	default:
		return ansiBlue
	}
}

// formatLogEntry renders "15:04:05 CLASSIFY  [C001] message".
func formatLogEntry(entry campaign.LogEntry, colorize bool) string {
	ts := "--:--:--"
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp.Local().Format(time.TimeOnly)
	}
	stage := fmt.Sprintf("%-9s", entry.Stage)
	if colorize {
		stage = stageColor(entry.Stage) + stage + ansiReset
	}
	var b strings.Builder
	b.WriteString(ts)
	b.WriteByte(' ')
	b.WriteString(stage)
	if entry.ClientID != "" {
		b.WriteString(" [")
		b.WriteString(entry.ClientID)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	return b.String()
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func resultsTable(results []api.Result) string {
	rows := make([][]string, 0, len(results))
	var ctr, open float64
	for _, r := range results {
		rows = append(rows, []string{
			r.ClientID,
			r.ClientName,
			r.CategoryLabel,
			r.Campaign.ID,
			r.Campaign.Channel,
			percent(r.Metrics.ClickThrough),
			percent(r.Metrics.OpenRate),
		})
		ctr += r.Metrics.ClickThrough
		open += r.Metrics.OpenRate
	}
	var footer []string
	if n := float64(len(results)); n > 0 {
		footer = []string{"", fmt.Sprintf("%d result(s)", len(results)), "", "", "avg", percent(ctr / n), percent(open / n)}
	}
	return renderTable(
		[]string{"Client", "Name", "Category", "Campaign", "Channel", "CTR", "Open"},
		rows,
		[]int{5, 6},
		footer,
	)
}

func renderStatusLine(label string, ok bool, message string, colorize bool) string {
	tag := "OK"
	color := ansiGreen
	if !ok {
		tag = "FAIL"
		color = ansiRed
	}
	line := fmt.Sprintf("  %-18s [%s] %s", label+":", tag, message)
	if colorize {
		return color + line + ansiReset
	}
	return line
}
