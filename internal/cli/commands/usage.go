package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/errors"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show per-server usage and idle recommendations",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		resp, err := c.GetUsage()
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatUsage(resp)
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
