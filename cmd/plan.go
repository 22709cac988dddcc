package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/withobsrvr/crawlersetup/internal/pipelines"
	"gopkg.in/yaml.v3"
)

var planOutput string

var (
	primaryColor = lipgloss.Color("#7D56F4")
	dimColor     = lipgloss.Color("#666666")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the resource definitions apply would send",
	Long: `Print every pipeline and inference endpoint definition in the order apply
provisions them. The service account credential is redacted. No cluster or
secret store access is needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		assembler := pipelines.NewAssembler(nil, nil, pipelines.DefaultSettings())
		return renderPlan(cmd.OutOrStdout(), assembler.Resources(), planOutput)
	},
}

func renderPlan(w io.Writer, resources []pipelines.Resource, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(resources)
	case "yaml", "":
		for i, r := range resources {
			if i > 0 {
				fmt.Fprintln(w, "---")
			}
			fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("# %s %s", r.Kind, r.ID)))
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("# step %d of %d", i+1, len(resources))))

			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(r.Definition); err != nil {
				return fmt.Errorf("failed to render %s: %w", r.ID, err)
			}
			if err := enc.Close(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}
}

func init() {
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "yaml", "output format (yaml|json)")
	rootCmd.AddCommand(planCmd)
}
