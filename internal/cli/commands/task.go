package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/errors"
)

var taskCmd = &cobra.Command{
	Use:   "task <description...>",
	Short: "Resolve a task description and activate the servers it needs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		result, err := c.SubmitTask(strings.Join(args, " "), force)
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatTask(result)
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
}
