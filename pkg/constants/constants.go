package constants

import "time"

const (
	// LIB_TRACER_NAME is the name of the OpenTelemetry tracer used by the analysis library.
	LIB_TRACER_NAME = "github.com/replicatedhq/testlog-analyzer"
	// ANALYSIS_ROOT_SPAN_NAME is the name of the span wrapping a whole analysis run.
	ANALYSIS_ROOT_SPAN_NAME = "analysis-run"
	// COLLECTION_ROOT_SPAN_NAME is the name of the span wrapping a whole collection run.
	COLLECTION_ROOT_SPAN_NAME = "collection-run"
	// EXCLUDED is the span attribute set when a source was not present in the bundle.
	EXCLUDED = "excluded"

	// DEFAULT_OUTPUT_DIRNAME is created next to the log directory when no output directory is given.
	DEFAULT_OUTPUT_DIRNAME = "analysis"

	// Output file names written by the report renderer.
	RESULTS_JSON_FILENAME    = "analysis-results.json"
	RESULTS_YAML_FILENAME    = "analysis-results.yaml"
	REPORT_MARKDOWN_FILENAME = "analysis-report.md"
	SUMMARY_TEXT_FILENAME    = "analysis-summary.txt"
	METRICS_PROM_FILENAME    = "analysis-metrics.prom"

	// DEFAULT_COLLECTOR_TIMEOUT bounds every subprocess run by the log collectors.
	DEFAULT_COLLECTOR_TIMEOUT = 30 * time.Second
	// DEFAULT_COLLECTOR_LINES is the number of trailing lines kept by container and file collectors.
	DEFAULT_COLLECTOR_LINES = 100
	// DEFAULT_CONTAINER_NAME is the container inspected when a spec does not name one.
	DEFAULT_CONTAINER_NAME = "macos-test-local"
)
