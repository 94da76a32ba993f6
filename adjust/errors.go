package adjust

import "github.com/mkallio/manweek/internal/apperr"

var (
	errEndBeforeStart = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "the end time must be after the start time",
	}

	errTooLong = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "an entry must not exceed 24 hours",
	}

	errTooShort = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "the adjusted entry would be shorter than %d seconds",
	}

	errNeighborTooShort = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "the shift would leave entry %d shorter than %d seconds",
	}

	errEmptyPreview = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "nothing to commit: the preview is empty",
	}

	errEmptyMode = &apperr.Error{
		Kind:    apperr.Validation,
		Message: "the mode label must not be empty",
	}
)
