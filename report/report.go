// Package report renders ledger data for the command line and exports it
// to CSV.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/internal/timeutil"
	"github.com/mkallio/manweek/internal/ui"
	"github.com/mkallio/manweek/store"
)

const noEntriesMsg = "No entries found for the specified date"

// PrintEntries writes a day's entries as a table.
func PrintEntries(entries []models.TimeEntry) {
	if len(entries) == 0 {
		pterm.Info.Println(noEntriesMsg)
		return
	}

	printEntriesTable(os.Stdout, entries)
}

func printEntriesTable(w io.Writer, entries []models.TimeEntry) {
	tableBody := make([][]string, len(entries))

	for i := range entries {
		e := entries[i]

		project := ""
		if e.ProjectID != nil {
			project = strconv.FormatInt(*e.ProjectID, 10)
		}

		sourceText := ui.Green(string(e.Source))
		if e.Source == models.SourceModified {
			sourceText = ui.Yellow(string(e.Source))
		}

		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.ModeLabel,
			project,
			timeutil.FormatClock(e.StartTS),
			timeutil.FormatClock(e.EndTS),
			timeutil.FormatSeconds(e.ActiveSeconds),
			timeutil.FormatSeconds(e.IdleSeconds),
			timeutil.FormatSeconds(e.ManualSeconds),
			sourceText,
			e.Description,
		}

		tableBody[i] = row
	}

	tableBody = append([][]string{
		{
			"ID",
			"MODE",
			"PROJECT",
			"START",
			"END",
			"ACTIVE",
			"IDLE",
			"MANUAL",
			"SOURCE",
			"DESCRIPTION",
		},
	}, tableBody...)

	ui.PrintTable(tableBody, w)
}

// PrintModeDistribution writes total active time per mode.
func PrintModeDistribution(totals []store.ModeTotal) {
	if len(totals) == 0 {
		pterm.Info.Println("No recorded time yet")
		return
	}

	tableBody := make([][]string, len(totals))

	for i, t := range totals {
		tableBody[i] = []string{
			t.Label,
			timeutil.FormatSeconds(t.ActiveSeconds),
		}
	}

	tableBody = append([][]string{
		{"MODE", "ACTIVE TIME"},
	}, tableBody...)

	ui.PrintTable(tableBody, os.Stdout)
}

// WriteCSV exports entries in a spreadsheet-friendly form.
func WriteCSV(w io.Writer, entries []models.TimeEntry) error {
	cw := csv.NewWriter(w)

	header := []string{
		"date",
		"start",
		"end",
		"mode",
		"project_id",
		"active_seconds",
		"idle_seconds",
		"manual_seconds",
		"source",
		"description",
	}

	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range entries {
		e := entries[i]

		project := ""
		if e.ProjectID != nil {
			project = strconv.FormatInt(*e.ProjectID, 10)
		}

		record := []string{
			e.Date,
			timeutil.FormatClock(e.StartTS),
			timeutil.FormatClock(e.EndTS),
			e.ModeLabel,
			project,
			strconv.FormatInt(e.ActiveSeconds, 10),
			strconv.FormatInt(e.IdleSeconds, 10),
			strconv.FormatInt(e.ManualSeconds, 10),
			string(e.Source),
			e.Description,
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
