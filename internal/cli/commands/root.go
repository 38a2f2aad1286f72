// Package commands wires the pilot-cli subcommands.
package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/client"
	"github.com/mcp-pilot/pilot/internal/cli/inference"
	"github.com/mcp-pilot/pilot/internal/cli/output"
)

var (
	daemonAddr string
	jsonOutput bool
	noColor    bool
	timeout    int
	force      bool
)

var rootCmd = &cobra.Command{
	Use:   "pilot-cli",
	Short: "MCP Pilot CLI - catalog, task routing and activation for MCP servers",
	Long: `MCP Pilot keeps a cached catalog of the MCP servers your gateway knows
about, maps free-text task descriptions to the servers they need, and
activates them in dependency order. This CLI talks to the pilot daemon.`,
}

func Execute() error {
	// Simple command inference - prepend inferred command to args
	if len(os.Args) > 1 {
		inferredCmd, _ := inference.InferCommand(os.Args[1:])
		if inferredCmd != "" {
			// Insert the inferred command after the program name
			newArgs := make([]string, 0, len(os.Args)+1)
			newArgs = append(newArgs, os.Args[0])
			newArgs = append(newArgs, inferredCmd)
			newArgs = append(newArgs, os.Args[1:]...)
			os.Args = newArgs
		}
	}
	return rootCmd.Execute()
}

func newClient() *client.ControlClient {
	return client.NewControlClient(daemonAddr, time.Duration(timeout)*time.Millisecond)
}

func newFormatter() *output.Formatter {
	fmtMode := output.FormatText
	if jsonOutput {
		fmtMode = output.FormatJSON
	}
	return output.NewFormatter(fmtMode, !noColor)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", "http://localhost:6300", "pilot daemon address")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30000, "request timeout in milliseconds")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "force a discovery refresh before answering")
}
