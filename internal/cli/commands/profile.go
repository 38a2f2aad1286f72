package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/errors"
	"github.com/mcp-pilot/pilot/internal/domain/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Work with server bundles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the daemon's profiles",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		profiles, err := c.GetProfiles()
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatProfiles(profiles)
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		profiles, err := c.GetProfiles()
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}

		for _, p := range profiles {
			if p.ID == args[0] {
				formatter.FormatProfiles([]profile.Profile{p})
				return
			}
		}
		fmt.Printf("profile %q not found\n", args[0])
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
}
