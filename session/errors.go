package session

import "github.com/mkallio/manweek/internal/apperr"

var errEmptyMode = &apperr.Error{
	Kind:    apperr.Validation,
	Message: "a mode label is required to start tracking",
}
