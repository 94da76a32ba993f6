package store

import "github.com/mkallio/manweek/internal/apperr"

var (
	errStoreUnavailable = &apperr.Error{
		Kind:    apperr.Persistence,
		Message: "ledger database is unavailable",
	}

	errMigrate = &apperr.Error{
		Kind:    apperr.Corruption,
		Message: "ledger schema migration failed",
	}

	errReadRow = &apperr.Error{
		Kind:    apperr.Corruption,
		Message: "reading a ledger row failed",
	}

	errEntryNotFound = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "no time entry with id %d",
	}

	errModeNotFound = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "no mode with id %d",
	}

	errProjectNotFound = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "no project with id %d",
	}

	errEmptyLabel = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "mode label must not be empty",
	}

	errEmptyCode = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "project code must not be empty",
	}

	errModeNameConflict = &apperr.Error{
		Kind:    apperr.NameConflict,
		Message: "a mode named %q already exists",
	}

	errModeSameName = &apperr.Error{
		Kind:    apperr.NameConflict,
		Message: "%q is the mode's current name",
	}

	errTrackerRunning = &apperr.Error{
		Kind:    apperr.Persistence,
		Message: "is manweek already running? Only one instance can be active at a time",
	}
)
