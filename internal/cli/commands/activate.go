package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/errors"
)

var activateCmd = &cobra.Command{
	Use:   "activate <server>...",
	Short: "Enable one or more MCP servers",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		result, err := c.Activate(args)
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatBatch(result)
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <server>...",
	Short: "Disable one or more MCP servers",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		result, err := c.Deactivate(args)
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatBatch(result)
	},
}

func init() {
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
}
