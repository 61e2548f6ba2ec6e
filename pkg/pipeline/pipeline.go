// Package pipeline runs the migration rules over files on disk: it discovers
// sources, gates rules on the project manifest, fans files out to a bounded
// worker pool and applies the failure policy to each file.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/codeshift/pkg/observability"
	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// Sentinel errors for pipeline runs.
var (
	// ErrUnknownPolicy is returned by ParsePolicy for an unrecognized name.
	ErrUnknownPolicy = errors.New("unknown failure policy")
	// ErrNoRules is returned when a runner is built without rules.
	ErrNoRules = errors.New("no rules selected")
	// ErrFileTooLarge marks a file above the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
	// ErrBinaryFile marks a file whose content is not text.
	ErrBinaryFile = errors.New("file looks binary")
	// ErrRuleFailed wraps the error of a rule that failed on a file.
	ErrRuleFailed = errors.New("rule failed")
)

// Policy decides what happens to a file when one of its rules fails.
type Policy string

// Failure policies.
const (
	// PolicySkipFile leaves the file untouched and moves on.
	PolicySkipFile Policy = "skip-file"
	// PolicyAbort stops the whole run.
	PolicyAbort Policy = "abort"
	// PolicyContinue keeps the results of the rules that succeeded.
	PolicyContinue Policy = "continue"
)

// ParsePolicy resolves a policy name. The empty string yields PolicySkipFile.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case "", PolicySkipFile:
		return PolicySkipFile, nil
	case PolicyAbort, PolicyContinue:
		return Policy(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// FileStatus is the outcome for one file.
type FileStatus string

// File outcomes.
const (
	FileUnchanged FileStatus = "unchanged"
	FileChanged   FileStatus = "changed"
	FileSkipped   FileStatus = "skipped"
	FileFailed    FileStatus = "failed"
)

// FileResult is what happened to one file.
type FileResult struct {
	Err         error                  `json:"-" yaml:"-"`
	Path        string                 `json:"path" yaml:"path"`
	Dialect     syntax.Dialect         `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Status      FileStatus             `json:"status" yaml:"status"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Rules       []RuleOutcome          `json:"rules,omitempty" yaml:"rules,omitempty"`
	Diagnostics []transform.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Original    []byte                 `json:"-" yaml:"-"`
	Output      []byte                 `json:"-" yaml:"-"`
	Duration    time.Duration          `json:"duration_ns" yaml:"duration_ns"`
	Size        int64                  `json:"size" yaml:"size"`
}

// RuleOutcome is the status of one rule on one file.
type RuleOutcome struct {
	Rule   string `json:"rule" yaml:"rule"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Changed reports whether the output differs from the original.
func (fr *FileResult) Changed() bool {
	return fr.Status == FileChanged
}

func (fr *FileResult) fail(status FileStatus, err error) {
	fr.Status = status
	fr.Err = err
	fr.Error = err.Error()
	fr.Output = fr.Original
}

// Summary is the outcome of a run.
type Summary struct {
	Files    []FileResult   `json:"files" yaml:"files"`
	Counts   map[string]int `json:"counts" yaml:"counts"`
	Duration time.Duration  `json:"duration_ns" yaml:"duration_ns"`
	DryRun   bool           `json:"dry_run" yaml:"dry_run"`
}

// Diagnostics returns the number of diagnostics over all files.
func (s *Summary) Diagnostics() int {
	total := 0
	for i := range s.Files {
		total += len(s.Files[i].Diagnostics)
	}

	return total
}

// Config configures a Runner.
type Config struct {
	// Options holds per-rule options keyed by rule name.
	Options map[string]transform.Options
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.MigrationMetrics
	Rules   []*transform.Plugin
	Policy  Policy
	// Dialect overrides the dialect chosen from the file extension.
	Dialect syntax.Dialect
	// Workers bounds parallel files. Zero means one per CPU.
	Workers int
	// MaxFileSize skips larger files. Zero disables the limit.
	MaxFileSize int64
	// DryRun computes outputs without writing them.
	DryRun bool
	// IgnoreManifest applies every rule regardless of package.json.
	IgnoreManifest bool
}

// Runner applies a rule set to files.
type Runner struct {
	manifests *manifestCache
	logger    *slog.Logger
	tracer    trace.Tracer
	cfg       Config
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoRules
	}

	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}

	cfg.Policy = policy

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	return &Runner{
		manifests: newManifestCache(),
		logger:    logger,
		tracer:    tracer,
		cfg:       cfg,
	}, nil
}

// Run discovers the files under paths and migrates them. Under PolicyAbort
// the first failing file stops the run and its error is returned alongside
// the results gathered so far.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "codeshift.run",
		trace.WithAttributes(attribute.Int("codeshift.rules", len(r.cfg.Rules))))
	defer span.End()

	files, err := Discover(paths)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	r.logger.InfoContext(ctx, "migration started", "files", len(files), "workers", r.cfg.Workers, "dry_run", r.cfg.DryRun)

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(files))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, path := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			result := r.File(gctx, path)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()

			if r.cfg.Policy == PolicyAbort && result.Err != nil {
				return fmt.Errorf("%s: %w", path, result.Err)
			}

			return nil
		})
	}

	runErr := g.Wait()

	slices.SortFunc(results, func(a, b FileResult) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})

	summary := &Summary{Files: results, Counts: countStatuses(results), Duration: time.Since(start), DryRun: r.cfg.DryRun}

	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
		r.logger.ErrorContext(ctx, "migration aborted", "error", runErr)

		return summary, runErr
	}

	r.logger.InfoContext(ctx, "migration finished",
		"changed", summary.Counts[string(FileChanged)],
		"failed", summary.Counts[string(FileFailed)],
		"diagnostics", summary.Diagnostics(),
		"duration", summary.Duration,
	)

	return summary, nil
}

// File migrates one file on disk and writes the result unless the runner is
// in dry-run mode.
func (r *Runner) File(ctx context.Context, path string) FileResult {
	start := time.Now()
	result := FileResult{Path: path}

	ctx = observability.WithFile(ctx, path)

	info, err := os.Stat(path)
	if err != nil {
		result.fail(FileFailed, fmt.Errorf("stat: %w", err))

		return r.finish(ctx, result, start)
	}

	result.Size = info.Size()

	if r.cfg.MaxFileSize > 0 && info.Size() > r.cfg.MaxFileSize {
		result.Status = FileSkipped
		result.Error = ErrFileTooLarge.Error()
		r.logger.DebugContext(ctx, "file skipped", "size", info.Size(), "limit", r.cfg.MaxFileSize)

		return r.finish(ctx, result, start)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		result.fail(FileFailed, fmt.Errorf("read: %w", err))

		return r.finish(ctx, result, start)
	}

	if isBinary(src) {
		result.Status = FileSkipped
		result.Error = ErrBinaryFile.Error()

		return r.finish(ctx, result, start)
	}

	deps := r.dependencies(ctx, path)
	result = r.transform(ctx, path, src, deps)
	result.Size = info.Size()

	if result.Changed() && !r.cfg.DryRun {
		err = os.WriteFile(path, result.Output, info.Mode().Perm())
		if err != nil {
			result.fail(FileFailed, fmt.Errorf("write: %w", err))
		}
	}

	return r.finish(ctx, result, start)
}

// Source migrates src as if it were read from path, without touching disk.
// The manifest next to path still gates the rules.
func (r *Runner) Source(ctx context.Context, path string, src []byte) FileResult {
	start := time.Now()
	ctx = observability.WithFile(ctx, path)

	result := r.transform(ctx, path, src, r.dependencies(ctx, path))
	result.Size = int64(len(src))

	return r.finish(ctx, result, start)
}

func (r *Runner) dependencies(ctx context.Context, path string) map[string]string {
	if r.cfg.IgnoreManifest {
		return nil
	}

	deps, err := r.manifests.forFile(path)
	if err != nil {
		r.logger.WarnContext(ctx, "manifest ignored", "error", err)

		return nil
	}

	return deps
}

func (r *Runner) finish(ctx context.Context, result FileResult, start time.Time) FileResult {
	result.Duration = time.Since(start)

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RecordFile(ctx, string(result.Status), result.Duration)
	}

	switch result.Status {
	case FileFailed:
		r.logger.WarnContext(ctx, "file failed", "error", result.Error)
	case FileChanged:
		r.logger.InfoContext(ctx, "file migrated", "diagnostics", len(result.Diagnostics))
	case FileUnchanged, FileSkipped:
		r.logger.DebugContext(ctx, "file processed", "status", string(result.Status))
	}

	return result
}

// binarySniffLength is how many leading bytes isBinary scans, as git does.
const binarySniffLength = 8000

// isBinary reports a NUL byte within the first binarySniffLength bytes.
func isBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffLength {
		sniff = sniff[:binarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

func countStatuses(results []FileResult) map[string]int {
	counts := map[string]int{
		string(FileChanged):   0,
		string(FileUnchanged): 0,
		string(FileSkipped):   0,
		string(FileFailed):    0,
	}

	for i := range results {
		counts[string(results[i].Status)]++
	}

	return counts
}
