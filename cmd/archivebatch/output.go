package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/activitylog"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// maxCellWidth keeps long descriptions from blowing up table layout.
const maxCellWidth = 60

type tableSpec struct {
	title   string
	headers []string
	rows    [][]string
	// numeric columns are right aligned (zero-based).
	numeric map[int]bool
	// wrap lists columns whose text is wrapped at maxCellWidth.
	wrap map[int]bool
}

func renderTable(spec tableSpec) string {
	columns := len(spec.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if spec.title != "" {
		tw.SetTitle(spec.title)
	}

	header := make(table.Row, columns)
	for i, h := range spec.headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range spec.rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		cc := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if spec.numeric[i] {
			cc.Align = text.AlignRight
		}
		if spec.wrap[i] {
			cc.WidthMax = maxCellWidth
			cc.WidthMaxEnforcer = text.WrapSoft
		}
		configs = append(configs, cc)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func kindLabel(kind activitylog.Kind) string {
	switch kind {
	case activitylog.KindSuccess:
		return "OK"
	case activitylog.KindError:
		return "ERROR"
	case activitylog.KindSkipped:
		return "SKIP"
	default:
		return "INFO"
	}
}

func kindColor(kind activitylog.Kind) string {
	switch kind {
	case activitylog.KindSuccess:
		return ansiGreen
	case activitylog.KindError:
		return ansiRed
	case activitylog.KindSkipped:
		return ansiYellow
	default:
		return ansiBlue
	}
}

// renderEntry formats one activity entry as a single console line.
func renderEntry(e activitylog.Entry, colorize bool) string {
	label := fmt.Sprintf("[%-5s]", kindLabel(e.Kind))
	if colorize {
		label = kindColor(e.Kind) + label + ansiReset
	}
	var b strings.Builder
	b.WriteString(e.Timestamp.Local().Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(label)
	if e.RecordID != "" {
		b.WriteByte(' ')
		b.WriteString(e.RecordID)
		b.WriteByte(':')
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)
	return b.String()
}

// consoleSink prints entries as they are appended.
func consoleSink(w io.Writer) activitylog.Sink {
	colorize := shouldColorize(w)
	return activitylog.SinkFunc(func(e activitylog.Entry) {
		fmt.Fprintln(w, renderEntry(e, colorize))
	})
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
