package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	analyzer "github.com/replicatedhq/testlog-analyzer/pkg/analyze"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"k8s.io/klog/v2"
)

// Output formats accepted by --format
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatMarkdown   = "markdown"
	FormatText       = "text"
	FormatPrometheus = "prometheus"
	FormatAll        = "all"
)

// ArtifactFormatter renders an analysis result into one output file
type ArtifactFormatter interface {
	Format(result *analyzer.AnalysisResult) ([]byte, error)
	FileName() string
}

// Artifact is a rendered output file
type Artifact struct {
	Format  string `json:"format"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	Content []byte `json:"-"`
}

// ArtifactManager renders analysis results and writes them to an output directory
type ArtifactManager struct {
	outputDir  string
	formatters map[string]ArtifactFormatter
}

// NewArtifactManager creates a new artifact manager
func NewArtifactManager(outputDir string) *ArtifactManager {
	am := &ArtifactManager{
		outputDir:  outputDir,
		formatters: make(map[string]ArtifactFormatter),
	}

	am.registerDefaultFormatters()

	return am
}

func (am *ArtifactManager) registerDefaultFormatters() {
	am.formatters[FormatJSON] = &JSONFormatter{}
	am.formatters[FormatYAML] = &YAMLFormatter{}
	am.formatters[FormatMarkdown] = &MarkdownFormatter{}
	am.formatters[FormatText] = &TextFormatter{}
	am.formatters[FormatPrometheus] = &PrometheusFormatter{}
}

// RegisterFormatter registers a custom formatter
func (am *ArtifactManager) RegisterFormatter(name string, formatter ArtifactFormatter) {
	am.formatters[name] = formatter
}

// ParseFormats expands a comma separated --format value. "all" selects the json,
// markdown and text outputs. Duplicates are dropped and order is kept.
func ParseFormats(value string) ([]string, error) {
	formats := []string{}
	seen := map[string]bool{}

	add := func(format string) {
		if !seen[format] {
			seen[format] = true
			formats = append(formats, format)
		}
	}

	for _, part := range strings.Split(value, ",") {
		format := strings.ToLower(strings.TrimSpace(part))
		switch format {
		case "":
			continue
		case FormatAll:
			add(FormatJSON)
			add(FormatMarkdown)
			add(FormatText)
		case "md":
			add(FormatMarkdown)
		case "yml":
			add(FormatYAML)
		case FormatJSON, FormatYAML, FormatMarkdown, FormatText, FormatPrometheus:
			add(format)
		default:
			return nil, errors.Errorf("unsupported format %q", part)
		}
	}

	if len(formats) == 0 {
		return nil, errors.New("no output format selected")
	}

	return formats, nil
}

// Render formats a result without writing it.
func (am *ArtifactManager) Render(result *analyzer.AnalysisResult, format string) (*Artifact, error) {
	if result == nil {
		return nil, errors.New("analysis result cannot be nil")
	}

	formatter, ok := am.formatters[format]
	if !ok {
		return nil, errors.Errorf("unsupported format: %s", format)
	}

	content, err := formatter.Format(result)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to format %s", format)
	}

	return &Artifact{
		Format:  format,
		Path:    filepath.Join(am.outputDir, formatter.FileName()),
		Size:    int64(len(content)),
		Content: content,
	}, nil
}

// GenerateArtifacts renders and writes every requested format. A failing format
// does not stop the others; all failures are returned together.
func (am *ArtifactManager) GenerateArtifacts(ctx context.Context, result *analyzer.AnalysisResult, formats []string) ([]*Artifact, error) {
	_, span := otel.Tracer(constants.LIB_TRACER_NAME).Start(ctx, "ArtifactManager.GenerateArtifacts")
	defer span.End()

	if err := os.MkdirAll(am.outputDir, 0755); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	var errs *multierror.Error
	artifacts := []*Artifact{}
	for _, format := range formats {
		artifact, err := am.Render(result, format)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		if err := am.writeArtifact(artifact); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		klog.V(1).Infof("wrote %s report to %s", format, artifact.Path)
		artifacts = append(artifacts, artifact)
	}

	span.SetAttributes(
		attribute.Int("total_artifacts", len(artifacts)),
		attribute.StringSlice("formats", formats),
	)

	if err := errs.ErrorOrNil(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return artifacts, err
	}

	return artifacts, nil
}

func (am *ArtifactManager) writeArtifact(artifact *Artifact) error {
	// readers such as the textfile collector must never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(artifact.Path), "."+filepath.Base(artifact.Path)+".*")
	if err != nil {
		return errors.Wrap(err, "failed to create artifact file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(artifact.Content); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", artifact.Path)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to chmod %s", artifact.Path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", artifact.Path)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), artifact.Path), "failed to move %s into place", artifact.Path)
}
