package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sanmat.dev/pkg/sanmat/internal/domain"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

var runSanitizersFlag []string
var runCompilerFlag string
var runGeneratorFlag string
var runJobsFlag int
var runTestTimeoutFlag time.Duration
var runDryRunFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

const runLongDescription = `Build and test the project under the requested sanitizers
(default: all of address, undefined, thread, memory).

Each requested sanitizer becomes one variant: a compiler is selected for it,
the project is configured and built in an isolated build directory, and the
test suite runs with that sanitizer's runtime options. A sanitizer no
available compiler can instrument is skipped; it does not fail the run.`

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [source-dir]",
		Short: "Run the sanitizer build matrix",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir := m.Path(".")
			if len(args) == 1 {
				sourceDir = m.Path(args[0])
			}

			kinds, err := m.ParseSanitizers(viper.GetStringSlice(sanitizersConfigKey))
			if err != nil {
				return err
			}

			return workflow.Run(cmd.Context(), domain.RunArgs{
				SourceDir:        sourceDir,
				Kinds:            kinds,
				CompilerOverride: runCompilerFlag,
				Candidates:       viper.GetStringSlice(candidatesConfigKey),
				Generator:        viper.GetString(generatorConfigKey),
				BuildType:        viper.GetString(buildTypeConfigKey),
				Jobs:             viper.GetInt(jobsConfigKey),
				BuildRoot:        m.Path(viper.GetString(buildRootConfigKey)),
				TestTimeout:      viper.GetDuration(testTimeoutConfigKey),
				DryRun:           runDryRunFlag,
				Quiet:            viper.GetBool(quietFlagName),
				Reports:          m.Path(viper.GetString(outputFlagName)),
				WriteReports:     !viper.GetBool(noReportFlagName),
				PrimaryArtifact:  viper.GetString(primaryBinConfigKey),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&runSanitizersFlag, sanitizersFlagName, "s", viper.GetStringSlice(sanitizersConfigKey), "sanitizers to run (all, or a subset of address,undefined,thread,memory)")
	bindFlagToConfig(cmd.Flags().Lookup(sanitizersFlagName), sanitizersConfigKey)

	cmd.Flags().StringVar(&runCompilerFlag, compilerFlagName, "", "compiler to use for every variant (bypasses automatic selection)")

	cmd.Flags().StringVarP(&runGeneratorFlag, generatorFlagName, "G", viper.GetString(generatorConfigKey), "CMake generator (e.g. Ninja)")
	bindFlagToConfig(cmd.Flags().Lookup(generatorFlagName), generatorConfigKey)

	cmd.Flags().IntVarP(&runJobsFlag, jobsFlagName, "j", viper.GetInt(jobsConfigKey), "build parallelism (default: host CPU count)")
	bindFlagToConfig(cmd.Flags().Lookup(jobsFlagName), jobsConfigKey)

	cmd.Flags().DurationVar(&runTestTimeoutFlag, testTimeoutFlagName, viper.GetDuration(testTimeoutConfigKey), "hard timeout per test executable")
	bindFlagToConfig(cmd.Flags().Lookup(testTimeoutFlagName), testTimeoutConfigKey)

	cmd.Flags().BoolVar(&runDryRunFlag, dryRunFlagName, false, "print planned commands without executing anything")
}
