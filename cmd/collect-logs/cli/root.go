package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/cmd/util"
	"github.com/replicatedhq/testlog-analyzer/internal/traces"
	"github.com/replicatedhq/testlog-analyzer/pkg/logger"
	"github.com/replicatedhq/testlog-analyzer/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

func RootCmd() *cobra.Command {
	var profiler *util.Profiler

	cmd := &cobra.Command{
		Use:   "collect-logs",
		Args:  cobra.NoArgs,
		Short: "Collect test logs from containers, files and commands",
		Long: `Run the log sources listed in a spec file and print the collected results as JSON.
Sources with an output path are also written into the log directory for analyze-logs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			v := viper.GetViper()
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.BindPFlags(cmd.Flags())

			logger.SetupLogger(v)

			profiler = util.NewProfiler(v)
			if err := profiler.Start(); err != nil {
				klog.Errorf("Failed to start profiling: %v", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()

			closer, err := traces.ConfigureTracing("collect-logs")
			if err != nil {
				klog.Errorf("Failed to initialize open tracing provider: %v", err)
			} else {
				defer closer()
			}

			err = runCollection(cmd.Context(), v, cmd.OutOrStdout())
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

	cmd.AddCommand(util.VersionCmd("Replicated Test Log Collector"))

	cmd.Flags().String("spec", "", "YAML file listing the log sources to collect (required)")
	cmd.Flags().String("log-dir", "", "directory that receives the output of sources with an output path")
	cmd.Flags().Int("concurrency", 4, "maximum number of sources collected at once")
	cmd.Flags().Bool("redact", true, "mask credentials and tokens in collected output")
	cmd.Flags().StringSlice("redact-value", nil, "additional literal values to mask in collected output")
	cmd.Flags().Bool("debug", false, "enable debug logging and print the collector timing summary")

	logger.InitKlogFlags(cmd)
	util.AddProfilingFlags(cmd)

	return cmd
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
