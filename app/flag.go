package app

import "github.com/urfave/cli/v2"

var (
	projectFlag = &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Attach the entry to the project with this `CODE`",
	}

	descriptionFlag = &cli.StringFlag{
		Name:    "description",
		Aliases: []string{"d"},
		Usage:   "Free-text `NOTE` stored on the entry",
	}

	dateFlag = &cli.StringFlag{
		Name:  "date",
		Usage: "Calendar `DATE` in YYYY-MM-DD form (default: today)",
	}

	idFlag = &cli.Int64Flag{
		Name:     "id",
		Usage:    "Ledger `ID` of the entry",
		Required: true,
	}

	endFlag = &cli.StringFlag{
		Name:     "end",
		Usage:    "New end `TIME` in HH:MM or HH:MM:SS form",
		Required: true,
	}

	startFlag = &cli.StringFlag{
		Name:     "start",
		Usage:    "Start `TIME` in HH:MM or HH:MM:SS form",
		Required: true,
	}

	modeFlag = &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Mode `LABEL` describing the working intention",
	}

	clearProjectFlag = &cli.BoolFlag{
		Name:  "clear-project",
		Usage: "Detach the entry from its project",
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Apply the change without asking for confirmation",
	}

	archivedFlag = &cli.BoolFlag{
		Name:  "archived",
		Usage: "Include archived projects",
	}

	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "First `DATE` of the export range (YYYY-MM-DD)",
	}

	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "Last `DATE` of the export range (YYYY-MM-DD)",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the export to `FILE` instead of stdout",
	}
)
