package artifacts

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	analyzer "github.com/replicatedhq/testlog-analyzer/pkg/analyze"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
)

const metricsNamespace = "testlog"

// PrometheusFormatter exports a run in the text format read by the node_exporter
// textfile collector. Numeric metrics become gauges labelled by category and facet,
// string metrics become info series carrying the value as a label.
type PrometheusFormatter struct{}

func (f *PrometheusFormatter) Format(result *analyzer.AnalysisResult) ([]byte, error) {
	registry := prometheus.NewRegistry()

	metricValue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "metric",
		Help:      "Numeric metric collected from the test logs",
	}, []string{"category", "facet"})
	metricInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "metric_info",
		Help:      "Textual metric collected from the test logs, value carried in the value label",
	}, []string{"category", "facet", "value"})
	issues := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "issues",
		Help:      "Issues found per category and severity",
	}, []string{"category", "severity"})
	insights := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "insights",
		Help:      "Insights found per category",
	}, []string{"category"})
	recommendations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "recommendations",
		Help:      "Recommendations raised per category and priority",
	}, []string{"category", "priority"})

	for _, c := range []prometheus.Collector{metricValue, metricInfo, issues, insights, recommendations} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	for _, key := range result.Metrics.Keys() {
		value, _ := result.Metrics.Get(key)
		if value.IsNumeric() {
			metricValue.WithLabelValues(key.Category, key.Facet).Set(value.Float64())
		} else {
			metricInfo.WithLabelValues(key.Category, key.Facet, value.String()).Set(1)
		}
	}
	for _, issue := range result.Issues {
		issues.WithLabelValues(issue.Category, string(issue.Severity)).Inc()
	}
	for _, insight := range result.Insights {
		insights.WithLabelValues(insight.Category).Inc()
	}
	for _, rec := range result.Recommendations {
		recommendations.WithLabelValues(rec.Category, string(rec.Priority)).Inc()
	}

	families, err := registry.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "failed to gather metrics")
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return nil, errors.Wrapf(err, "failed to encode %s", family.GetName())
		}
	}

	return buf.Bytes(), nil
}

func (f *PrometheusFormatter) FileName() string {
	return constants.METRICS_PROM_FILENAME
}
