// Package export runs the configured exports of an extraction.
//
// Each enabled export becomes one mongoexport invocation. Incremental
// exports read their last fetched value from the state file, narrow the
// query with it and store the new value after a successful run. A failed
// export does not stop the remaining ones; all failures are returned
// together.
package export

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/mongoextract/pkg/config"
	"github.com/ajitpratap0/mongoextract/pkg/connector/sources/mongodb"
	"github.com/ajitpratap0/mongoextract/pkg/errors"
	"github.com/ajitpratap0/mongoextract/pkg/incremental"
	"github.com/ajitpratap0/mongoextract/pkg/logger"
	"github.com/ajitpratap0/mongoextract/pkg/metrics"
	"github.com/ajitpratap0/mongoextract/pkg/observability"
	stringpool "github.com/ajitpratap0/mongoextract/pkg/strings"
)

// Result describes one finished export
type Result struct {
	Name     string
	Out      string
	Bytes    int64
	Duration time.Duration
	// LastFetchedValue is set for incremental exports that produced documents
	LastFetchedValue interface{}
	Err              error
}

// Extractor runs exports against one source
type Extractor struct {
	cfg    *config.Config
	source *mongodb.Source
	runner CommandRunner
}

// New creates an extractor. A nil runner selects a ShellRunner configured
// from cfg.Process.
func New(cfg *config.Config, source *mongodb.Source, runner CommandRunner) *Extractor {
	if runner == nil {
		runner = NewShellRunner(cfg.Process.Shell, cfg.Process.Timeout)
	}
	return &Extractor{cfg: cfg, source: source, runner: runner}
}

// Run executes the enabled exports, or only those named in names
func (x *Extractor) Run(ctx context.Context, names ...string) ([]Result, error) {
	ctx = logger.ContextWithRunID(ctx, uuid.NewString())

	selected, err := x.selectExports(names)
	if err != nil {
		return nil, err
	}

	store := incremental.Store{}
	if x.cfg.StateFile != "" {
		if store, err = incremental.LoadStore(x.cfg.StateFile); err != nil {
			return nil, err
		}
	}

	var (
		results  []Result
		combined error
		dirty    bool
	)
	for _, e := range selected {
		res := x.runExport(ctx, e, store)
		results = append(results, res)
		if res.Err != nil {
			combined = multierr.Append(combined,
				errors.Wrap(res.Err, errors.ErrorTypeProcess, stringpool.Sprintf("export %q failed", e.Name)))
			continue
		}
		if res.LastFetchedValue != nil {
			store[e.Name] = incremental.State{LastFetchedValue: res.LastFetchedValue}
			dirty = true
		}
	}

	if dirty && x.cfg.StateFile != "" {
		combined = multierr.Append(combined, store.Save(x.cfg.StateFile))
	}
	return results, combined
}

func (x *Extractor) selectExports(names []string) ([]config.ExportConfig, error) {
	if len(names) == 0 {
		var enabled []config.ExportConfig
		for _, e := range x.cfg.Exports {
			if e.IsEnabled() {
				enabled = append(enabled, e)
			}
		}
		return enabled, nil
	}

	byName := make(map[string]config.ExportConfig, len(x.cfg.Exports))
	for _, e := range x.cfg.Exports {
		byName[e.Name] = e
	}
	selected := make([]config.ExportConfig, 0, len(names))
	for _, name := range names {
		e, ok := byName[name]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, "unknown export %q", name)
		}
		selected = append(selected, e)
	}
	return selected, nil
}

func (x *Extractor) runExport(ctx context.Context, e config.ExportConfig, store incremental.Store) (res Result) {
	ctx = logger.ContextWithExport(ctx, e.Name, e.Collection)
	log := logger.WithContext(ctx)

	collector := metrics.NewCollector(e.Name)
	timer := metrics.NewTimer(e.Name)

	ctx, span := observability.StartExportSpan(ctx, e.Name, e.Collection, e.IsIncremental())
	res.Name = e.Name
	defer func() {
		res.Duration = timer.Stop()
		collector.RecordExport(res.Err, res.Duration, res.Bytes)
		observability.EndSpan(span, res.Err)
	}()

	p, err := x.source.Params(e, x.cfg.Process.OutputDir, store[e.Name])
	if err != nil {
		res.Err = err
		return res
	}
	res.Out = p.Out

	if dir := filepath.Dir(p.Out); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			res.Err = errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
				WithDetail("path", dir)
			return res
		}
	}

	command, redacted := x.source.Command(p)
	log.Info("starting export", zap.String("command", redacted))

	if err := x.runner.Run(ctx, command); err != nil {
		res.Err = x.scrub(err)
		log.Error("export failed", zap.Error(res.Err))
		return res
	}

	if info, err := os.Stat(p.Out); err == nil {
		res.Bytes = info.Size()
	}

	if e.IsIncremental() {
		column := strings.TrimSpace(e.IncrementalFetchingColumn)
		value, ok, err := incremental.LastValue(p.Out, column)
		if err != nil {
			res.Err = err
			return res
		}
		if ok {
			res.LastFetchedValue = value
		} else {
			log.Debug("no new documents", zap.String("column", column))
		}
	}

	log.Info("export finished",
		zap.String("out", p.Out),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("duration", timer.Stop()))
	return res
}

// scrub masks the connection password in error details taken from the
// tool's output
func (x *Extractor) scrub(err error) error {
	uri := x.source.URI()
	if !uri.HasPassword() || uri.Password() == "" {
		return err
	}

	secrets := []string{stringpool.RawURLEncode(uri.Password()), uri.Password()}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err
	}
	for k, v := range e.Details {
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, secret := range secrets {
			s = strings.ReplaceAll(s, secret, "xxxxx")
		}
		e.Details[k] = s
	}
	return err
}
