package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the command line.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch Classify(err).Category {
	case CategoryConfig:
		return 7
	case CategoryResolution, CategoryTransform, CategoryPlan, CategoryEmit:
		return 11
	case CategoryCanceled:
		return 130
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-facing display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	be := Classify(err)
	if a.verbose {
		return be.Error()
	}
	if be.Category == CategoryConfig {
		return be.Message
	}
	return fmt.Sprintf("%s: %s", be.Category, be.Message)
}

// HandleError reports an error and exits with its code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	be := Classify(err)
	if a.verbose || be.Category == CategoryInternal {
		a.logger.LogAttrs(nil, slog.LevelError, be.Message,
			slog.String("category", string(be.Category)),
			slog.Any("cause", be.Cause))
	}

	fmt.Fprintf(os.Stderr, "%s\n", a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}
