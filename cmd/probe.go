package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sanmat.dev/pkg/sanmat/internal/domain"
)

// probeCmd represents the probe command.
var probeCmd = newProbeCmd()

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Show detected compilers and their sanitizer support",
		Long: `Probe the candidate compilers on the search path and report, per
sanitizer, whether a trial compile and link succeeds. Nothing is cached;
the probe reflects the toolchain as it is right now.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.Probe(cmd.Context(), domain.ProbeArgs{
				Candidates: viper.GetStringSlice(candidatesConfigKey),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
