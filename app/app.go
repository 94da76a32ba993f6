// Package app assembles the manweek command-line interface. The commands
// exposed here are the same entry points a surrounding GUI would call:
// switch, stop, list, edit preview/commit, and mode management.
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/mkallio/manweek/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the manweek app instance.
func Get() *cli.App {
	manweekApp := &cli.App{
		Name: "manweek",
		Usage: `
		Manweek records how your working time is distributed across modes
		(working intentions) and projects, producing an editable ledger of
		time intervals.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "track",
				Usage:     "Track time against a mode until interrupted",
				ArgsUsage: "MODE",
				Flags:     []cli.Flag{projectFlag, descriptionFlag},
				Action:    trackAction,
			},
			{
				Name:   "entries",
				Usage:  "List the recorded entries of a calendar date",
				Flags:  []cli.Flag{dateFlag},
				Action: entriesAction,
			},
			{
				Name:  "edit",
				Usage: "Reshape or relabel recorded entries",
				Subcommands: []*cli.Command{
					{
						Name:   "end",
						Usage:  "Move an entry's end time, dragging an adjacent neighbor along",
						Flags:  []cli.Flag{idFlag, endFlag, yesFlag},
						Action: editEndAction,
					},
					{
						Name:  "fields",
						Usage: "Change an entry's mode, project, or description",
						Flags: []cli.Flag{
							idFlag,
							modeFlag,
							projectFlag,
							clearProjectFlag,
							descriptionFlag,
						},
						Action: editFieldsAction,
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Insert a manual entry for a date",
				ArgsUsage: "MODE",
				Flags: []cli.Flag{
					dateFlag,
					startFlag,
					endFlag,
					projectFlag,
					descriptionFlag,
				},
				Action: addAction,
			},
			{
				Name:  "modes",
				Usage: "Inspect and manage activity modes",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List all modes with usage counts",
						Action: modesListAction,
					},
					{
						Name:      "rename",
						Usage:     "Rename a mode and rewrite its entries",
						ArgsUsage: "ID NEW_LABEL",
						Action:    modesRenameAction,
					},
					{
						Name:   "suggest",
						Usage:  "Show the autocomplete suggestion order",
						Action: modesSuggestAction,
					},
				},
			},
			{
				Name:  "projects",
				Usage: "Inspect and manage projects",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Create or update a project",
						ArgsUsage: "CODE [NAME]",
						Action:    projectsAddAction,
					},
					{
						Name:   "list",
						Usage:  "List projects",
						Flags:  []cli.Flag{archivedFlag},
						Action: projectsListAction,
					},
					{
						Name:      "archive",
						Usage:     "Hide a project from future selection",
						ArgsUsage: "ID",
						Action:    projectsArchiveAction(true),
					},
					{
						Name:      "unarchive",
						Usage:     "Restore an archived project",
						ArgsUsage: "ID",
						Action:    projectsArchiveAction(false),
					},
				},
			},
			{
				Name:   "report",
				Usage:  "Show total active time per mode",
				Action: reportAction,
			},
			{
				Name:   "export",
				Usage:  "Export entries to CSV",
				Flags:  []cli.Flag{fromFlag, toFlag, outputFlag},
				Action: exportAction,
			},
			{
				Name:      "set",
				Usage:     "Override a tracking threshold in the ledger database",
				ArgsUsage: "KEY DURATION",
				Action:    setAction,
			},
			{
				Name:   "clear",
				Usage:  "Delete all recorded entries and weeks",
				Flags:  []cli.Flag{yesFlag},
				Action: clearAction,
			},
		},
		Before: beforeAction,
	}

	return manweekApp
}
