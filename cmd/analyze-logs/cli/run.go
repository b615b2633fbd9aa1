package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/internal/util"
	analyzer "github.com/replicatedhq/testlog-analyzer/pkg/analyze"
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/artifacts"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"github.com/replicatedhq/testlog-analyzer/pkg/types"
	"github.com/spf13/viper"
)

func runAnalysis(ctx context.Context, v *viper.Viper, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logDir := v.GetString("log-dir")
	if logDir == "" {
		return types.NewUsageError("--log-dir is required")
	}
	outputDir := outputDirFor(logDir, v.GetString("output-dir"))

	formats, err := artifacts.ParseFormats(v.GetString("format"))
	if err != nil {
		return types.NewUsageError(err.Error())
	}

	rules, err := loadRules(v.GetString("rules"))
	if err != nil {
		return err
	}

	bundle, err := analyzer.OpenBundle(ctx, logDir)
	if err != nil {
		return types.NewRunError(errors.Wrap(err, "failed to open log bundle"))
	}
	defer bundle.Close()

	result, err := analyzer.AnalyzeLogs(ctx, bundle, analyzer.AnalyzeOptions{Rules: rules})
	if err != nil {
		return types.NewRunError(errors.Wrap(err, "failed to analyze logs"))
	}

	written, err := artifacts.NewArtifactManager(outputDir).GenerateArtifacts(ctx, result, formats)
	if err != nil {
		return types.NewRunError(errors.Wrap(err, "failed to write analysis results"))
	}

	if v.GetBool("verbose") {
		printSummary(out, result, outputDir, written)
	}

	return nil
}

// outputDirFor defaults the output directory to a sibling of the log
// directory. Remote bundles have no parent so they default to the working
// directory.
func outputDirFor(logDir, outputDir string) string {
	if outputDir != "" {
		return outputDir
	}
	if util.IsURL(logDir) {
		return constants.DEFAULT_OUTPUT_DIRNAME
	}
	return filepath.Join(filepath.Dir(filepath.Clean(logDir)), constants.DEFAULT_OUTPUT_DIRNAME)
}

func loadRules(path string) (analyzer.RuleSet, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewUsageError(errors.Wrap(err, "failed to read rules file").Error())
	}
	rules, err := analyzer.LoadRuleSet(data)
	if err != nil {
		return nil, types.NewUsageError(errors.Wrapf(err, "invalid rules file %s", path).Error())
	}
	return rules, nil
}
