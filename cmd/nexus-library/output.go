package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/library"
	liberrors "github.com/joe/nexus-library/pkg/errors"
)

func (a *app) errOut() io.Writer {
	return os.Stderr
}

// print writes res and returns the exit code for it.
func (a *app) print(res library.Result) int {
	if a.args.JSON {
		if code := a.encode(res); code != exitOK {
			return code
		}
	} else {
		writeResult(a.out, res)
	}

	if !res.OK() {
		if !a.args.JSON {
			writeSuggestions(a.errOut(), res.Err)
		}

		return exitFailure
	}

	return exitOK
}

func (a *app) encode(v any) int {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return report(a.errOut(), fmt.Errorf("failed to encode output: %w", err))
	}

	return exitOK
}

// report prints err with suggestions and returns the failure exit code.
func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	writeSuggestions(w, err)

	return exitFailure
}

func writeSuggestions(w io.Writer, err error) {
	if err == nil {
		return
	}

	if suggestions := liberrors.FormatSuggestions(liberrors.NewEnricher().Enrich(err, "")); suggestions != "" {
		fmt.Fprintln(w, suggestions)
	}
}

func writeResult(w io.Writer, res library.Result) {
	if !res.OK() {
		fmt.Fprintf(w, "✗ %s\n", res.Message)
	} else if res.Item != nil {
		fmt.Fprintf(w, "✓ %s [%s] %s\n", res.Item.ID, res.Item.Status, res.Item.Title)
	} else {
		fmt.Fprintln(w, "✓ done")
	}

	for _, problem := range res.Errors {
		fmt.Fprintf(w, "  ! %s\n", problem)
	}

	if res.Details != nil {
		writeDetails(w, res.Details)
	}
}

func writeDetails(w io.Writer, details *library.Details) {
	fmt.Fprintln(w, "prefix aliases:")

	for _, alias := range details.PrefixAliases {
		fmt.Fprintf(w, "  %s\n", alias)
	}

	rows := make([][]string, 0, len(details.Libraries))
	for _, lib := range details.Libraries {
		rows = append(rows, []string{lib.Label, lib.DownloadLocation, formatBytes(lib.Disk.AvailableBytes), formatBytes(lib.Disk.TotalBytes)})
	}

	fmt.Fprintln(w, newTable("LIBRARY", "DOWNLOAD TO", "FREE", "SIZE").Rows(rows...).Render())
}

func writeTable(w io.Writer, items []*catalog.GameItem) {
	rows := make([][]string, 0, len(items))

	for _, item := range items {
		local := "-"
		if item.RealLocalGamePath != "" {
			local = item.RealLocalGamePath
		}

		rows = append(rows, []string{item.ID, string(item.Status), string(item.Launcher), item.Title, local})
	}

	fmt.Fprintln(w, newTable("ID", "STATUS", "LAUNCHER", "TITLE", "LOCAL").Rows(rows...).Render())
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true)

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}

			return lipgloss.NewStyle()
		})
}

func formatBytes(n uint64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
