package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIAdapter maps SiteErrors to exit codes and user-facing messages.
type CLIAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIAdapter creates a CLI error adapter.
func NewCLIAdapter(verbose bool, logger *slog.Logger) *CLIAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the exit code for an error.
func (a *CLIAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	se, ok := err.(*SiteError)
	if !ok {
		return 1
	}
	switch se.Category {
	case CategoryValidation:
		return 2
	case CategoryContent:
		return 3
	case CategoryConfig:
		return 7
	case CategoryGit, CategoryNetwork:
		return 8
	case CategoryBuild, CategoryFileSystem, CategoryState:
		return 11
	case CategoryDaemon:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for display. Configuration and authoring
// errors show just the message; everything else keeps its category prefix.
func (a *CLIAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	se, ok := err.(*SiteError)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return se.Error()
	}
	switch se.Category {
	case CategoryConfig, CategoryValidation, CategoryContent:
		return se.Message
	default:
		return fmt.Sprintf("%s: %s", se.Category, se.Message)
	}
}

// HandleError prints the error and exits with its mapped code.
func (a *CLIAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintf(os.Stderr, "%s\n", a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

func (a *CLIAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if se, ok := err.(*SiteError); ok {
		return se.Category == CategoryInternal || se.Severity == SeverityFatal
	}
	return true
}

func (a *CLIAdapter) logError(err error) {
	se, ok := err.(*SiteError)
	if !ok {
		a.logger.Error("unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(se.Category))}
	if se.Retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(nil, a.levelFor(se.Severity), se.Message, attrs...)
}

func (a *CLIAdapter) levelFor(severity Severity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
