package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-pilot/pilot/internal/cli/errors"
)

var (
	catalogCategory  string
	catalogActive    bool
	catalogAvailable bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List known MCP servers",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		formatter := newFormatter()

		if catalogAvailable {
			resp, err := c.GetAvailable()
			if err != nil {
				fmt.Println(formatter.FormatError(errors.Classify(err)))
				os.Exit(1)
			}
			formatter.FormatAvailable(resp)
			return
		}

		resp, err := c.GetCatalog(catalogCategory, !catalogActive, force)
		if err != nil {
			fmt.Println(formatter.FormatError(errors.Classify(err)))
			os.Exit(1)
		}
		formatter.FormatCatalog(resp)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogCategory, "category", "", "only servers in this category")
	catalogCmd.Flags().BoolVar(&catalogActive, "active", false, "only enabled servers")
	catalogCmd.Flags().BoolVar(&catalogAvailable, "available", false, "list installable servers from the gateway catalog")
}
