// Package output renders daemon responses for humans and for JSON
// consumers.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/mcp-pilot/pilot/internal/cli/client"
	"github.com/mcp-pilot/pilot/internal/cli/errors"
	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/domain/profile"
	"github.com/mcp-pilot/pilot/internal/orchestrator"
)

type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

type Formatter struct {
	format OutputFormat
	color  bool
}

func NewFormatter(format OutputFormat, useColor bool) *Formatter {
	return &Formatter{
		format: format,
		color:  useColor,
	}
}

func (f *Formatter) FormatError(err errors.ClassifiedError) string {
	if f.format == FormatJSON {
		data, _ := json.MarshalIndent(err, "", "  ")
		return string(data)
	}

	var msg string
	if f.color {
		msg = color.RedString("Error [%s]: %s", err.Kind, err.Message)
		if err.Hint != "" {
			msg += "\n" + color.YellowString("Hint: %s", err.Hint)
		}
	} else {
		msg = fmt.Sprintf("Error [%s]: %s", err.Kind, err.Message)
		if err.Hint != "" {
			msg += "\nHint: " + err.Hint
		}
	}
	return msg
}

func (f *Formatter) FormatCatalog(resp *client.CatalogResponse) {
	if f.printJSON(resp) {
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Name", "Category", "Status", "Tools", "Description"}),
	)

	for _, record := range resp.Servers {
		table.Append([]string{
			record.Name,
			string(record.Category),
			string(record.Status),
			fmt.Sprintf("%d", record.ToolCount),
			record.Description,
		})
	}

	table.Render()
	fmt.Printf("%d servers\n", resp.Count)
}

func (f *Formatter) FormatAvailable(resp *client.AvailableResponse) {
	if f.printJSON(resp) {
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Name", "Description"}),
	)
	for _, entry := range resp.Servers {
		table.Append([]string{entry.Name, entry.Description})
	}
	table.Render()
}

func (f *Formatter) FormatServerDetail(record *catalog.ServerMetadata) {
	if f.printJSON(record) {
		return
	}

	if f.color {
		color.Cyan("%s", record.Name)
	} else {
		fmt.Println(record.Name)
	}
	fmt.Printf("  Category:    %s\n", record.Category)
	fmt.Printf("  Status:      %s\n", record.Status)
	fmt.Printf("  Tools:       %d\n", record.ToolCount)
	if record.Description != "" {
		fmt.Printf("  Description: %s\n", record.Description)
	}
	if record.RequiresAuth {
		fmt.Printf("  Auth:        required (%s)\n", record.AuthType)
	}
	if record.Prompt != "" {
		fmt.Printf("  Prompt:      %s\n", record.Prompt)
	}
	if !record.LastDiscovered.IsZero() {
		fmt.Printf("  Discovered:  %s\n", record.LastDiscovered.Format(time.RFC3339))
	}
}

func (f *Formatter) FormatTask(result *orchestrator.TaskResult) {
	if f.printJSON(result) {
		return
	}

	if result.ProfileID != "" {
		fmt.Printf("Matched profile: %s\n", result.ProfileID)
	} else {
		analysis := result.Analysis
		if len(analysis.RequiredServers) == 0 && len(analysis.RecommendedServers) == 0 {
			fmt.Println("No servers matched; browse the catalog with 'pilot-cli catalog'.")
			return
		}
		fmt.Printf("Required:    %s\n", strings.Join(analysis.RequiredServers, ", "))
		if len(analysis.RecommendedServers) > 0 {
			fmt.Printf("Recommended: %s\n", strings.Join(analysis.RecommendedServers, ", "))
		}
		fmt.Printf("Token cost:  ~%d\n", analysis.EstimatedTokenCost)
		fmt.Printf("Confidence:  %.2f\n", analysis.Confidence)
	}

	f.printBatch(result.Activation)
}

func (f *Formatter) FormatBatch(result *orchestrator.BatchResult) {
	if f.printJSON(result) {
		return
	}
	f.printBatch(*result)
}

func (f *Formatter) printBatch(result orchestrator.BatchResult) {
	for _, name := range result.Done {
		if f.color {
			color.Green("done: %s", name)
		} else {
			fmt.Printf("done: %s\n", name)
		}
	}
	for _, name := range result.Skipped {
		fmt.Printf("skipped (already there): %s\n", name)
	}
	names := make([]string, 0, len(result.Failed))
	for name := range result.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if f.color {
			color.Red("failed: %s: %s", name, result.Failed[name])
		} else {
			fmt.Printf("failed: %s: %s\n", name, result.Failed[name])
		}
	}
}

func (f *Formatter) FormatUsage(resp *client.UsageResponse) {
	if f.printJSON(resp) {
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Server", "Last Used", "Accesses", "Tools"}),
	)

	names := make([]string, 0, len(resp.Servers))
	for name := range resp.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		record := resp.Servers[name]
		table.Append([]string{
			name,
			record.LastUsed.Format(time.RFC3339),
			fmt.Sprintf("%d", record.AccessCount),
			fmt.Sprintf("%d", len(record.ToolUsage)),
		})
	}
	table.Render()

	if len(resp.Idle) > 0 {
		if f.color {
			color.Yellow("Idle, consider deactivating: %s", strings.Join(resp.Idle, ", "))
		} else {
			fmt.Printf("Idle, consider deactivating: %s\n", strings.Join(resp.Idle, ", "))
		}
	}
}

func (f *Formatter) FormatStatus(status *orchestrator.StatusInfo) {
	if f.printJSON(status) {
		return
	}

	if f.color {
		color.Cyan("Pilot Daemon Status:")
	} else {
		fmt.Println("Pilot Daemon Status:")
	}
	fmt.Printf("  Uptime:         %s\n", status.Uptime.Round(time.Second))
	if status.LastDiscovery.IsZero() {
		fmt.Printf("  Last discovery: never\n")
	} else {
		fmt.Printf("  Last discovery: %s\n", status.LastDiscovery.Format(time.RFC3339))
	}
	fmt.Printf("  Servers:        %d (%d enabled)\n", status.ServerCount, status.EnabledCount)
	fmt.Printf("  Categories:     %d\n", status.Categories)
}

func (f *Formatter) FormatProfiles(profiles []profile.Profile) {
	if f.printJSON(profiles) {
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"ID", "Servers", "Keywords", "Auto", "Description"}),
	)
	for _, p := range profiles {
		table.Append([]string{
			p.ID,
			strings.Join(p.Servers, ", "),
			strings.Join(p.Keywords, ", "),
			fmt.Sprintf("%v", p.AutoActivate),
			p.Description,
		})
	}
	table.Render()
}

// printJSON emits v and reports true when JSON mode is on.
func (f *Formatter) printJSON(v interface{}) bool {
	if f.format != FormatJSON {
		return false
	}
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
	return true
}
