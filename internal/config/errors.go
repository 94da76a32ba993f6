package config

import "github.com/mkallio/manweek/internal/apperr"

var (
	errReadConfig = &apperr.Error{
		Kind:    apperr.Corruption,
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Kind:    apperr.Persistence,
		Message: "writing default config failed",
	}

	errInvalidDuration = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "%s must be a duration, got %q",
	}

	errThresholdTooSmall = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "%s must be at least %v",
	}

	errRetriesOutOfRange = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "max persist retries must be between %d and %d",
	}
)
