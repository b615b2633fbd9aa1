package analyzer

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/analyze/remediation"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"k8s.io/klog/v2"
)

type AnalyzeOptions struct {
	// Rules overrides the built-in pattern rules.
	Rules RuleSet
	// Remediation overrides the built-in recommendation rules.
	Remediation *remediation.RemediationEngine
	// Now stamps issues, insights and the summary. Defaults to time.Now.
	Now func() time.Time
}

// AnalyzeLogs runs every source analyzer over the bundle, then summarizes the
// findings and derives recommendations. A source that is missing is skipped and a
// source that cannot be analyzed becomes an error issue, so the only errors
// returned are those that prevent the run itself.
func AnalyzeLogs(ctx context.Context, bundle *LogBundle, opts AnalyzeOptions) (*AnalysisResult, error) {
	if bundle == nil {
		return nil, errors.New("nil log bundle")
	}

	runID := uuid.New().String()

	ctx, span := otel.Tracer(constants.LIB_TRACER_NAME).Start(ctx, constants.ANALYSIS_ROOT_SPAN_NAME)
	span.SetAttributes(attribute.String("run_id", runID))
	defer span.End()

	analyzers := GetSourceAnalyzers(bundle, opts.Rules)

	klog.V(1).Infof("analysis run %s: %d sources registered", runID, len(analyzers))

	collector := NewCollector(opts.Now)
	for _, analyzer := range analyzers {
		runSourceAnalyzer(ctx, analyzer, bundle, collector)
	}

	generateSummary(collector)

	engine := opts.Remediation
	if engine == nil {
		engine = remediation.NewRemediationEngine()
	}
	recommendations := engine.GenerateRecommendations(findings(collector))

	metrics := collector.Metrics().Clone()
	result := &AnalysisResult{
		Summary:         metrics,
		Issues:          collector.Issues(),
		Insights:        collector.Insights(),
		Metrics:         metrics,
		Timeline:        collector.Timeline(),
		Recommendations: recommendations,
		RunID:           runID,
		GeneratedAt:     collector.now(),
	}

	klog.V(1).Infof("analysis run %s: %d issues, %d insights, %d recommendations",
		runID, len(result.Issues), len(result.Insights), len(result.Recommendations))

	return result, nil
}

func runSourceAnalyzer(ctx context.Context, analyzer SourceAnalyzer, bundle *LogBundle, collector *Collector) {
	_, span := otel.Tracer(constants.LIB_TRACER_NAME).Start(ctx, analyzer.Title())
	span.SetAttributes(attribute.String("type", reflect.TypeOf(analyzer).String()))
	defer span.End()

	if analyzer.IsExcluded(bundle) {
		klog.V(2).Infof("excluding %q analyzer", analyzer.Title())
		span.SetAttributes(attribute.Bool(constants.EXCLUDED, true))
		return
	}

	if err := analyzer.Analyze(bundle, collector); err != nil {
		klog.V(1).Infof("%q analyzer failed: %v", analyzer.Title(), err)
		span.SetStatus(codes.Error, err.Error())
	}
}
