package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sanmat.dev/pkg/sanmat/internal/domain"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "View the previously generated analysis report",
		Long:  "Re-render the saved run from the reports directory without re-running anything.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))
			return workflow.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath})
		},
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
