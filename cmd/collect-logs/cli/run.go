package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	cursor "github.com/ahmetalpbalkan/go-cursor"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/collect"
	"github.com/replicatedhq/testlog-analyzer/pkg/redact"
	"github.com/replicatedhq/testlog-analyzer/pkg/types"
	"github.com/spf13/viper"
	spin "github.com/tj/go-spin"
)

func runCollection(ctx context.Context, v *viper.Viper, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	specPath := v.GetString("spec")
	if specPath == "" {
		return types.NewUsageError("--spec is required")
	}
	data, err := os.ReadFile(specPath)
	if err != nil {
		return types.NewUsageError(errors.Wrap(err, "failed to read source spec").Error())
	}
	sources, err := collect.LoadSourceSpec(data)
	if err != nil {
		return types.NewUsageError(errors.Wrapf(err, "invalid source spec %s", specPath).Error())
	}

	opts := collect.CollectOptions{
		LogDir:      v.GetString("log-dir"),
		Concurrency: v.GetInt("concurrency"),
	}

	if v.GetBool("redact") {
		set, err := redact.NewDefaultSet(v.GetStringSlice("redact-value")...)
		if err != nil {
			return types.NewRunError(errors.Wrap(err, "failed to build redactors"))
		}
		opts.Redactor = set
	}

	var finished func()
	if isatty.IsTerminal(os.Stderr.Fd()) {
		progressChan := make(chan interface{})
		finished = showProgress(os.Stderr, progressChan)
		opts.ProgressChan = progressChan
	}

	results, collectErr := collect.CollectLogs(ctx, sources, opts)
	if finished != nil {
		finished()
	}
	if results == nil && collectErr != nil {
		return types.NewRunError(errors.Wrap(collectErr, "failed to collect logs"))
	}

	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return types.NewRunError(errors.Wrap(err, "failed to format results"))
	}
	fmt.Fprintf(out, "%s\n", b)

	if collectErr != nil {
		return types.NewRunError(errors.Wrap(collectErr, "failed to write collected logs"))
	}
	return nil
}

// showProgress draws a spinner with the current collector on w until the
// returned func is called.
func showProgress(w io.Writer, progressChan <-chan interface{}) func() {
	fmt.Fprint(w, cursor.Hide())

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	s := spin.New()
	finishedCh := make(chan struct{})
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		current := ""
		errorTxt := color.New(color.FgHiRed)
		for {
			select {
			case msg := <-progressChan:
				switch msg := msg.(type) {
				case error:
					errorTxt.Fprintf(w, "%s\r * %v\n", cursor.ClearEntireLine(), msg)
				case string:
					current = msg
				}
			case <-signalChan:
				fmt.Fprint(w, cursor.Show())
				os.Exit(0)
			case <-finishedCh:
				fmt.Fprintf(w, "\r%s\r", cursor.ClearEntireLine())
				return
			case <-time.After(100 * time.Millisecond):
				fmt.Fprintf(w, "\r%s  %s %s %s", cursor.ClearEntireLine(), color.CyanString("Collecting logs"), s.Next(), current)
			}
		}
	}()

	return func() {
		close(finishedCh)
		<-doneCh
		signal.Stop(signalChan)
		fmt.Fprint(w, cursor.Show())
	}
}
