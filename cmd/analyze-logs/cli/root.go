package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/cmd/util"
	"github.com/replicatedhq/testlog-analyzer/internal/traces"
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/artifacts"
	"github.com/replicatedhq/testlog-analyzer/pkg/logger"
	"github.com/replicatedhq/testlog-analyzer/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

func RootCmd() *cobra.Command {
	var profiler *util.Profiler

	cmd := &cobra.Command{
		Use:   "analyze-logs",
		Args:  cobra.NoArgs,
		Short: "Analyze collected test logs",
		Long: `Run pattern and structured analyzers over a directory of collected test logs
and write the results as JSON, Markdown, text, YAML or Prometheus metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			v := viper.GetViper()
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.BindPFlags(cmd.Flags())

			logger.SetupLogger(v)

			if f, ok := cmd.OutOrStdout().(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
				color.NoColor = true
			}

			profiler = util.NewProfiler(v)
			if err := profiler.Start(); err != nil {
				klog.Errorf("Failed to start profiling: %v", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()

			closer, err := traces.ConfigureTracing("analyze-logs")
			if err != nil {
				// tracing is optional
				klog.Errorf("Failed to initialize open tracing provider: %v", err)
			} else {
				defer closer()
			}

			err = runAnalysis(cmd.Context(), v, cmd.OutOrStdout())
			if v.GetBool("debug") || v.IsSet("log-level") {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s", traces.GetExporterInstance().GetSummary())
			}
			return err
		},
		PostRun: func(cmd *cobra.Command, args []string) {
			if err := profiler.Stop(); err != nil {
				klog.Errorf("Failed to stop profiling: %v", err)
			}
		},
	}

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(util.VersionCmd("Replicated Test Log Analyzer"))
	AddFlags(cmd.Flags())

	logger.InitKlogFlags(cmd)
	util.AddProfilingFlags(cmd)

	return cmd
}

// AddFlags registers the analysis flags on flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("log-dir", "", "directory, .tar.gz archive or URL holding the collected logs (required)")
	flags.String("output-dir", "", "directory for analysis results (default <parent of log-dir>/analysis)")
	flags.String("format", artifacts.FormatAll, "comma separated output formats: json, markdown, text, yaml, prometheus or all")
	flags.String("rules", "", "YAML file with pattern rules to add to or replace the built-in rules")
	flags.BoolP("verbose", "v", false, "print a summary of the analysis")
	flags.Bool("debug", false, "enable debug logging and print the analyzer timing summary")
}

func InitAndExecute() {
	cmd := RootCmd()
	err := cmd.Execute()
	if err == nil {
		return
	}

	cmd.PrintErrln("Error:", err.Error())

	var exitErr types.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitStatus())
	}
	os.Exit(types.EXIT_CODE_FAILURE)
}

func initConfig() {
	viper.SetEnvPrefix("TESTLOGS")
	viper.AutomaticEnv()
}
