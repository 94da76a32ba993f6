// Package idle abstracts the operating system's "time since last input"
// signal. The session controller only ever sees the Source interface, so
// tests can substitute a deterministic reading.
package idle

import (
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/mkallio/manweek/internal/apperr"
)

// Source yields the elapsed time since the last input device activity. A
// reading must be cheap: the controller calls it on every poll tick and must
// not be starved.
type Source interface {
	IdleFor() (time.Duration, error)
}

// Func adapts a plain function to a Source.
type Func func() (time.Duration, error)

func (f Func) IdleFor() (time.Duration, error) {
	return f()
}

// Command probes idleness by running a configured external command that
// prints milliseconds since last input (xprintidle and friends).
type Command struct {
	args []string
}

// NewCommand parses the configured probe command line.
func NewCommand(cmdline string) (*Command, error) {
	args, err := shellquote.Split(cmdline)
	if err != nil {
		return nil, apperr.Wrap(
			apperr.Validation,
			err,
			"invalid idle probe command: %s",
			cmdline,
		)
	}

	if len(args) == 0 {
		return nil, apperr.New(apperr.Validation, "idle probe command is empty")
	}

	return &Command{args: args}, nil
}

func (c *Command) IdleFor() (time.Duration, error) {
	out, err := exec.Command(c.args[0], c.args[1:]...).Output()
	if err != nil {
		return 0, apperr.Wrap(
			apperr.Persistence,
			err,
			"idle probe %s failed",
			c.args[0],
		)
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, apperr.Wrap(
			apperr.Validation,
			err,
			"idle probe output is not a millisecond count",
		)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

// None is a Source that always reports recent activity. It keeps tracking
// functional on systems without a configured probe.
var None Source = Func(func() (time.Duration, error) {
	return 0, nil
})
