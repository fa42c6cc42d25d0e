package cmd

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// hooksCmd represents the hooks command
var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List registered renewal hooks",
	Long:  `Lists every registered hook with its service unit and run priority, including unit overrides from the config file.`,
	RunE:  runHooks,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}

func runHooks(cmd *cobra.Command, args []string) error {
	list := newRegistry().All()

	switch {
	case IsJSONOutput():
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case IsYAMLOutput():
		return yaml.NewEncoder(os.Stdout).Encode(list)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Hook", "Unit", "Priority")
		for _, h := range list {
			table.Append([]string{h.Name, h.Unit, strconv.Itoa(h.Priority)})
		}
		table.Render()
		return nil
	}
}
