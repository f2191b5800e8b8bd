// Package cmd provides the root command and CLI setup for sanmat.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sanmat.dev/pkg/sanmat/internal/adapter"
	"sanmat.dev/pkg/sanmat/internal/controller"
	"sanmat.dev/pkg/sanmat/internal/domain"
)

var runner adapter.CommandRunner
var fsAdapter adapter.BuildFSAdapter
var reportStore adapter.ReportStore
var compilerProbe domain.CompilerProbe
var aggregator domain.ReportAggregator
var ui controller.UI
var workflow domain.Workflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// noReportFlag suppresses report file generation when set.
var noReportFlag bool

// buildRootFlag overrides the directory variants build under.
var buildRootFlag string

var verboseFlag bool
var quietFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	runner = adapter.NewLocalCommandRunner()
	fsAdapter = adapter.NewLocalBuildFSAdapter()
	reportStore = adapter.NewLocalReportStore()
	compilerProbe = domain.NewCompilerProbe(runner, fsAdapter)
	aggregator = domain.NewReportAggregator()
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	workflow = domain.NewWorkflow(runner, fsAdapter, reportStore, ui, compilerProbe, aggregator)
}

const rootLongDescription = `sanmat builds a CMake project under several sanitizer configurations
(address, undefined behavior, thread, memory), runs the test suite under
each one with sanitizer-specific runtime policy, and aggregates the results
into a unified report.

Each sanitizer gets its own compiler selection, its own isolated build
directory and its own runtime-option environment, so incompatible
instrumentations never share state.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanmat",
		Short: "Sanitizer build-and-test orchestrator for CMake projects",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(verboseFlagName))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for analysis reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVar(&noReportFlag, noReportFlagName, viper.GetBool(noReportFlagName), "skip writing report files")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noReportFlagName), noReportFlagName)

	cmd.PersistentFlags().StringVar(&buildRootFlag, buildRootFlagName, viper.GetString(buildRootConfigKey), "root directory for per-sanitizer build directories")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(buildRootFlagName), buildRootConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "verbose logging")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), verboseFlagName)

	cmd.PersistentFlags().BoolVarP(&quietFlag, quietFlagName, "q", false, "suppress per-test progress output")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(quietFlagName), quietFlagName)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}
