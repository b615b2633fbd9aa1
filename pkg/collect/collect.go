package collect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/constants"
	"github.com/replicatedhq/testlog-analyzer/pkg/redact"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

const defaultConcurrency = 4

type CollectOptions struct {
	// LogDir receives each source's output file. Nothing is written when empty.
	LogDir string
	// Concurrency bounds the number of collectors running at once.
	Concurrency int
	// ProgressChan, when set, receives the title of each collector as it starts
	// and any collector errors.
	ProgressChan chan<- interface{}
	// Redactor masks sensitive values in collected output unless a source
	// sets skip_redaction. Output is kept as collected when nil.
	Redactor *redact.Set
	Now      func() time.Time
}

// CollectLogs runs a collector for every source and returns the results keyed
// by source name. Collector failures are recorded on their results. The
// returned error only reports output files that could not be written.
func CollectLogs(ctx context.Context, sources []LogSource, opts CollectOptions) (map[string]*CollectorResult, error) {
	ctx, root := otel.Tracer(constants.LIB_TRACER_NAME).Start(ctx, constants.COLLECTION_ROOT_SPAN_NAME)
	defer root.End()

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	collectors := make([]LogCollector, len(sources))
	for i, source := range sources {
		collector, err := GetLogCollector(source)
		if err != nil {
			root.SetStatus(codes.Error, err.Error())
			return nil, errors.Wrapf(err, "source %s", source.Name)
		}
		collectors[i] = collector
	}

	var (
		mu        sync.Mutex
		results   = map[string]*CollectorResult{}
		writeErrs *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range sources {
		source, collector := sources[i], collectors[i]
		g.Go(func() error {
			result, excluded := runCollector(gctx, collector, opts.ProgressChan)
			if excluded {
				return nil
			}
			result.stamp(now())

			if opts.Redactor != nil && !source.SkipRedaction {
				if err := result.redact(opts.Redactor, source.Name); err != nil {
					// never report or write unredacted output
					*result = CollectorResult{
						Error:     fmt.Sprintf("Error redacting output: %v", err),
						Timestamp: result.Timestamp,
					}
				}
			}

			if opts.LogDir != "" && source.Output != "" && result.Error == "" {
				if err := writeOutput(opts.LogDir, source.Output, result.primary()); err != nil {
					mu.Lock()
					writeErrs = multierror.Append(writeErrs, errors.Wrapf(err, "source %s", source.Name))
					mu.Unlock()
				} else {
					result.Output = source.Output
				}
			}

			mu.Lock()
			results[source.Name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := writeErrs.ErrorOrNil(); err != nil {
		root.SetStatus(codes.Error, err.Error())
		return results, err
	}
	return results, nil
}

func runCollector(ctx context.Context, collector LogCollector, progressChan chan<- interface{}) (*CollectorResult, bool) {
	ctx, span := otel.Tracer(constants.LIB_TRACER_NAME).Start(ctx, collector.Title())
	span.SetAttributes(attribute.String("type", reflect.TypeOf(collector).String()))
	defer span.End()

	if collector.IsExcluded() {
		klog.V(1).Infof("Excluding %q collector", collector.Title())
		span.SetAttributes(attribute.Bool(constants.EXCLUDED, true))
		return nil, true
	}

	sendProgress(progressChan, collector.Title())
	result, err := collector.Collect(ctx)
	if result == nil {
		result = &CollectorResult{}
	}
	if err != nil {
		klog.V(1).Infof("Collector %q failed: %v", collector.Title(), err)
		span.SetStatus(codes.Error, err.Error())
		result.Error = err.Error()
		sendProgress(progressChan, errors.Wrap(err, collector.Title()))
	}

	return result, false
}

func sendProgress(progressChan chan<- interface{}, msg interface{}) {
	if progressChan == nil {
		return
	}
	progressChan <- msg
}

func writeOutput(logDir, relPath, content string) error {
	path := filepath.Join(logDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to write %s", relPath))
	}
	klog.V(2).Infof("Wrote collected logs to %s", path)
	return nil
}
