// Package inference guesses the intended subcommand when the user
// types free text instead of one.
package inference

import (
	"strings"
)

// knownCommands are the explicit subcommands that must never be
// rewritten.
var knownCommands = map[string]bool{
	"catalog":    true,
	"show":       true,
	"task":       true,
	"activate":   true,
	"deactivate": true,
	"usage":      true,
	"status":     true,
	"profile":    true,
	"help":       true,
	"completion": true,
}

// InferCommand maps bare free text to the task subcommand, so
// `pilot-cli "set up a redis cache"` works without spelling out task.
func InferCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}

	first := args[0]
	if strings.HasPrefix(first, "-") || knownCommands[first] {
		return "", args
	}

	// Multi-word input, or a single quoted phrase with spaces, reads as
	// a task description.
	if len(args) > 1 || strings.Contains(first, " ") {
		return "task", args
	}

	return "", args
}
