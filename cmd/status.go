package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/withobsrvr/crawlersetup/internal/config"
	"github.com/withobsrvr/crawlersetup/internal/elastic"
	"github.com/withobsrvr/crawlersetup/internal/pipelines"
	"github.com/withobsrvr/crawlersetup/internal/provision"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which crawler resources exist on the cluster",
	Long: `Check each pipeline and the inference endpoint without changing anything.

Exits with a non-zero status when a resource is missing or could not be
checked, so it can be used as a readiness probe after "apply".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cluster, err := config.LoadCluster(viper.GetViper())
		if err != nil {
			return err
		}

		client, err := elastic.New(cmd.Context(), cluster, runID)
		if err != nil {
			return err
		}

		assembler := pipelines.NewAssembler(client, nil, pipelines.DefaultSettings())
		return displayStatus(cmd.OutOrStdout(), assembler.Inspect(cmd.Context()))
	},
}

func displayStatus(w io.Writer, statuses []pipelines.Status) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	notReady := 0
	for _, s := range statuses {
		switch {
		case s.Err != nil:
			notReady++
			red.Fprintf(w, "✗ %-8s", "error")
			fmt.Fprintf(w, " %-20s %s: %v\n", s.Kind, s.ID, s.Err)
		case s.Presence == provision.Found:
			green.Fprintf(w, "✓ %-8s", "present")
			fmt.Fprintf(w, " %-20s %s\n", s.Kind, s.ID)
		default:
			notReady++
			yellow.Fprintf(w, "⚠ %-8s", "missing")
			fmt.Fprintf(w, " %-20s %s\n", s.Kind, s.ID)
		}
	}

	summary := color.New(color.FgYellow, color.Bold)
	summary.Fprintf(w, "\n%d/%d resources present\n", len(statuses)-notReady, len(statuses))

	if notReady > 0 {
		return fmt.Errorf("%d of %d resources are not ready", notReady, len(statuses))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
