package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/errors"
)

var showCmd = &cobra.Command{
	Use:   "show <server>",
	Short: "Show one server's full metadata",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		record, err := c.GetServer(args[0], force)
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatServerDetail(record)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
