package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mkallio/manweek/adjust"
	"github.com/mkallio/manweek/internal/config"
	"github.com/mkallio/manweek/internal/idle"
	"github.com/mkallio/manweek/internal/timeutil"
	"github.com/mkallio/manweek/internal/ui"
	"github.com/mkallio/manweek/report"
	"github.com/mkallio/manweek/session"
	"github.com/mkallio/manweek/store"
)

const (
	envNoColor        = "NO_COLOR"
	envManweekNoColor = "MANWEEK_NO_COLOR"
)

func beforeAction(_ *cli.Context) error {
	config.InitializePaths()

	initLogger()

	if _, ok := os.LookupEnv(envNoColor); ok {
		disableStyling()
	}

	if _, ok := os.LookupEnv(envManweekNoColor); ok {
		disableStyling()
	}

	return nil
}

func initLogger() {
	logger := slog.New(slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   config.LogFilePath(),
		MaxSize:    1,
		MaxBackups: 3,
	}, nil))

	slog.SetDefault(logger)
}

// openDeps loads the configuration and opens the ledger, applying any
// threshold overrides stored in the settings table.
func openDeps() (*config.Config, *store.Client, error) {
	cfg, err := config.New(
		config.WithViperConfig(config.ConfigFilePath()),
	)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.NewClient(cfg.System.DBPath)
	if err != nil {
		return nil, nil, err
	}

	cfg.Tracking.IdleThreshold = db.DurationSetting(
		store.SettingIdleThreshold,
		cfg.Tracking.IdleThreshold,
	)
	cfg.Tracking.AdjacencyThreshold = db.DurationSetting(
		store.SettingAdjacencyThreshold,
		cfg.Tracking.AdjacencyThreshold,
	)

	return cfg, db, nil
}

func resolveProject(
	db store.DB,
	code string,
) (*int64, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}

	project, err := db.GetProjectByCode(code)
	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, fmt.Errorf(
			"no project with code %q: create it with 'manweek projects add'",
			code,
		)
	}

	return &project.ID, nil
}

func trackAction(ctx *cli.Context) error {
	modeLabel := strings.TrimSpace(ctx.Args().First())
	if modeLabel == "" {
		return fmt.Errorf("a mode label is required: manweek track MODE")
	}

	cfg, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	projectID, err := resolveProject(db, ctx.String("project"))
	if err != nil {
		return err
	}

	snaps, err := store.NewSnapshotStore(cfg.System.SnapshotPath)
	if err != nil {
		return err
	}
	defer snaps.Close()

	src := idle.None

	if cfg.Tracking.IdleProbeCmd != "" {
		src, err = idle.NewCommand(cfg.Tracking.IdleProbeCmd)
		if err != nil {
			return err
		}
	}

	controller := session.New(db, snaps, src, session.Options{
		IdleThreshold:     cfg.Tracking.IdleThreshold,
		PollInterval:      cfg.Tracking.PollInterval,
		SleepSlack:        cfg.Tracking.SleepSlack,
		MaxPersistRetries: cfg.Tracking.MaxPersistRetries,
	})

	if err := controller.Recover(); err != nil {
		return err
	}

	err = controller.UserSwitch(
		modeLabel,
		projectID,
		ctx.String("description"),
	)
	if err != nil {
		return err
	}

	pterm.Info.Printfln(
		"Tracking %q (idle threshold %s). Press Ctrl-C to stop.",
		modeLabel,
		cfg.Tracking.IdleThreshold,
	)

	runCtx, stop := signal.NotifyContext(
		ctx.Context,
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	controller.Run(runCtx)

	pterm.Success.Println("Tracking stopped")

	return nil
}

func dateArg(ctx *cli.Context) (string, error) {
	date := strings.TrimSpace(ctx.String("date"))
	if date == "" {
		return time.Now().Format(timeutil.DateLayout), nil
	}

	if _, err := timeutil.ParseDate(date); err != nil {
		return "", err
	}

	return date, nil
}

func entriesAction(ctx *cli.Context) error {
	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	date, err := dateArg(ctx)
	if err != nil {
		return err
	}

	entries, err := db.EntriesForDate(date)
	if err != nil {
		return err
	}

	report.PrintEntries(entries)

	return nil
}

func editEndAction(ctx *cli.Context) error {
	cfg, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := adjust.New(db, cfg.Tracking.AdjacencyThreshold)

	entry, err := db.GetEntry(ctx.Int64("id"))
	if err != nil {
		return err
	}

	newEndTS, err := timeutil.ClockOnDate(entry.Date, ctx.String("end"))
	if err != nil {
		return err
	}

	// An end clock before the start clock means the entry runs past
	// midnight.
	if newEndTS <= entry.StartTS {
		newEndTS += int64((24 * time.Hour).Seconds())
	}

	preview, err := engine.PreviewResize(entry.ID, newEndTS)
	if err != nil {
		return err
	}

	printPreview(os.Stdout, preview)

	if !ctx.Bool("yes") && !confirm("The entries above will be updated.") {
		pterm.Info.Println("No changes were made")
		return nil
	}

	if err := engine.Commit(preview); err != nil {
		return err
	}

	pterm.Success.Printfln("Updated %d entries", len(preview.Changes))

	return nil
}

func editFieldsAction(ctx *cli.Context) error {
	cfg, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := adjust.New(db, cfg.Tracking.AdjacencyThreshold)

	var patch adjust.FieldPatch

	if ctx.IsSet("mode") {
		label := ctx.String("mode")
		patch.ModeLabel = &label
	}

	if ctx.Bool("clear-project") {
		var cleared *int64
		patch.ProjectID = &cleared
	} else if ctx.IsSet("project") {
		projectID, err := resolveProject(db, ctx.String("project"))
		if err != nil {
			return err
		}

		patch.ProjectID = &projectID
	}

	if ctx.IsSet("description") {
		desc := ctx.String("description")
		patch.Description = &desc
	}

	if patch.ModeLabel == nil && patch.ProjectID == nil &&
		patch.Description == nil {
		return fmt.Errorf("nothing to change: pass --mode, --project, or --description")
	}

	if err := engine.EditFields(ctx.Int64("id"), patch); err != nil {
		return err
	}

	pterm.Success.Println("Entry updated")

	return nil
}

func addAction(ctx *cli.Context) error {
	cfg, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	modeLabel := strings.TrimSpace(ctx.Args().First())
	if modeLabel == "" {
		return fmt.Errorf("a mode label is required: manweek add MODE")
	}

	date, err := dateArg(ctx)
	if err != nil {
		return err
	}

	startTS, err := timeutil.ClockOnDate(date, ctx.String("start"))
	if err != nil {
		return err
	}

	endTS, err := timeutil.ClockOnDate(date, ctx.String("end"))
	if err != nil {
		return err
	}

	// Crossing midnight is allowed; the entry still belongs to its start
	// date.
	if endTS <= startTS {
		endTS += int64((24 * time.Hour).Seconds())
	}

	projectID, err := resolveProject(db, ctx.String("project"))
	if err != nil {
		return err
	}

	engine := adjust.New(db, cfg.Tracking.AdjacencyThreshold)

	entry, err := engine.InsertManual(
		startTS,
		endTS,
		modeLabel,
		projectID,
		ctx.String("description"),
	)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("Added entry %d on %s", entry.ID, entry.Date)

	return nil
}

func modesListAction(_ *cli.Context) error {
	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	modes, err := db.ListModes()
	if err != nil {
		return err
	}

	if len(modes) == 0 {
		pterm.Info.Println("No modes recorded yet")
		return nil
	}

	tableBody := make([][]string, len(modes))

	for i, m := range modes {
		lastUsed := ""
		if !m.LastUsedAt.IsZero() {
			lastUsed = m.LastUsedAt.Format("Jan 02, 2006 03:04 PM")
		}

		tableBody[i] = []string{
			strconv.FormatInt(m.ID, 10),
			m.Label,
			strconv.FormatInt(m.UsageCount, 10),
			lastUsed,
		}
	}

	tableBody = append([][]string{
		{"ID", "LABEL", "USES", "LAST USED"},
	}, tableBody...)

	ui.PrintTable(tableBody, os.Stdout)

	return nil
}

func modesRenameAction(ctx *cli.Context) error {
	if ctx.NArg() < 2 {
		return fmt.Errorf("usage: manweek modes rename ID NEW_LABEL")
	}

	modeID, err := strconv.ParseInt(ctx.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("the mode id must be a number: %w", err)
	}

	newLabel := strings.Join(ctx.Args().Slice()[1:], " ")

	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RenameMode(modeID, newLabel); err != nil {
		return err
	}

	pterm.Success.Printfln(
		"Renamed mode %d to %q (entries updated)",
		modeID,
		strings.TrimSpace(newLabel),
	)

	return nil
}

func modesSuggestAction(_ *cli.Context) error {
	cfg, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	modes, err := db.ModeSuggestions(cfg.Tracking.SuggestionLimit)
	if err != nil {
		return err
	}

	for _, m := range modes {
		fmt.Fprintln(os.Stdout, m.Label)
	}

	return nil
}

func projectsAddAction(ctx *cli.Context) error {
	code := strings.TrimSpace(ctx.Args().First())
	if code == "" {
		return fmt.Errorf("usage: manweek projects add CODE [NAME]")
	}

	name := strings.Join(ctx.Args().Slice()[1:], " ")

	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	project, err := db.UpsertProject(code, name)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("Saved project %s (id %d)", project.Code, project.ID)

	return nil
}

func projectsListAction(ctx *cli.Context) error {
	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	projects, err := db.ListProjects(ctx.Bool("archived"))
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		pterm.Info.Println("No projects yet")
		return nil
	}

	tableBody := make([][]string, len(projects))

	for i, p := range projects {
		status := ui.Green("active")
		if p.Archived {
			status = ui.Red("archived")
		}

		tableBody[i] = []string{
			strconv.FormatInt(p.ID, 10),
			p.Code,
			p.Name,
			status,
		}
	}

	tableBody = append([][]string{
		{"ID", "CODE", "NAME", "STATUS"},
	}, tableBody...)

	ui.PrintTable(tableBody, os.Stdout)

	return nil
}

func projectsArchiveAction(archived bool) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		projectID, err := strconv.ParseInt(ctx.Args().First(), 10, 64)
		if err != nil {
			return fmt.Errorf("the project id must be a number: %w", err)
		}

		_, db, err := openDeps()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.SetProjectArchived(projectID, archived); err != nil {
			return err
		}

		if archived {
			pterm.Success.Printfln("Archived project %d", projectID)
		} else {
			pterm.Success.Printfln("Restored project %d", projectID)
		}

		return nil
	}
}

func reportAction(_ *cli.Context) error {
	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	totals, err := db.ModeDistribution()
	if err != nil {
		return err
	}

	report.PrintModeDistribution(totals)

	return nil
}

func exportAction(ctx *cli.Context) error {
	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	today := time.Now().Format(timeutil.DateLayout)

	from := ctx.String("from")
	if from == "" {
		from = "0000-01-01"
	} else if _, err := timeutil.ParseDate(from); err != nil {
		return err
	}

	to := ctx.String("to")
	if to == "" {
		to = today
	} else if _, err := timeutil.ParseDate(to); err != nil {
		return err
	}

	entries, err := db.EntriesBetween(from, to)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout

	if output := ctx.String("output"); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()

		w = f
	}

	return report.WriteCSV(w, entries)
}

func setAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf(
			"usage: manweek set KEY DURATION (keys: %s, %s)",
			store.SettingIdleThreshold,
			store.SettingAdjacencyThreshold,
		)
	}

	key := ctx.Args().Get(0)

	if key != store.SettingIdleThreshold &&
		key != store.SettingAdjacencyThreshold {
		return fmt.Errorf("unknown setting %q", key)
	}

	value := ctx.Args().Get(1)

	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("the value must be a duration such as 300s: %w", err)
	}

	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetSetting(key, value); err != nil {
		return err
	}

	pterm.Success.Printfln("Set %s to %s", key, value)

	return nil
}

func clearAction(ctx *cli.Context) error {
	if !ctx.Bool("yes") &&
		!confirm("ALL recorded entries and weeks will be deleted.") {
		pterm.Info.Println("No changes were made")
		return nil
	}

	_, db, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Clear()
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"Deleted %d entries and %d weeks; reset %d mode counters",
		stats.Entries,
		stats.Weeks,
		stats.ModesReset,
	)

	return nil
}

func printPreview(w io.Writer, preview *adjust.Preview) {
	tableBody := [][]string{
		{"ID", "", "START", "END", "ACTIVE", "IDLE", "MANUAL"},
	}

	for _, change := range preview.Changes {
		tableBody = append(tableBody, []string{
			strconv.FormatInt(change.Before.ID, 10),
			"before",
			timeutil.FormatClock(change.Before.StartTS),
			timeutil.FormatClock(change.Before.EndTS),
			timeutil.FormatSeconds(change.Before.ActiveSeconds),
			timeutil.FormatSeconds(change.Before.IdleSeconds),
			timeutil.FormatSeconds(change.Before.ManualSeconds),
		}, []string{
			"",
			"after",
			timeutil.FormatClock(change.After.StartTS),
			timeutil.FormatClock(change.After.EndTS),
			timeutil.FormatSeconds(change.After.ActiveSeconds),
			timeutil.FormatSeconds(change.After.IdleSeconds),
			timeutil.FormatSeconds(change.After.ManualSeconds),
		})
	}

	ui.PrintTable(tableBody, w)
}

func confirm(message string) bool {
	warning := pterm.Warning.Sprintf(
		"%s Press ENTER to proceed or Ctrl-C to abort.",
		message,
	)

	fmt.Fprint(os.Stdout, warning)

	reader := bufio.NewReader(os.Stdin)

	_, err := reader.ReadString('\n')

	return err == nil
}
