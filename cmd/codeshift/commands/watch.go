package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codeshift/pkg/observability"
	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
	"github.com/Sumatoshi-tech/codeshift/pkg/report"
)

// ErrInvalidDebounce is returned for a --debounce that is not a positive duration.
var ErrInvalidDebounce = errors.New("debounce must be a positive duration")

type watchCommand struct {
	global   *globalOptions
	pipeline pipelineFlags
	debounce string
}

func newWatchCommand(global *globalOptions) *cobra.Command {
	wc := &watchCommand{global: global}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Migrate files as they change",
		Long: `Migrate every file under dir once, then keep migrating files that are
created or written until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: wc.run,
	}

	wc.pipeline.register(cmd)

	cmd.Flags().StringVar(&wc.debounce, "debounce", "", "Quiet period before a batch of changes is migrated (e.g. 500ms)")

	return cmd
}

func (wc *watchCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := wc.global.open(cmd, observability.ModeWatch)
	if err != nil {
		return err
	}
	defer sess.close()

	if cmd.Flags().Changed("debounce") {
		debounce, parseErr := parseDebounce(wc.debounce)
		if parseErr != nil {
			return parseErr
		}

		sess.cfg.Watch.Debounce = debounce
	}

	runner, err := wc.pipeline.runner(cmd, sess, false)
	if err != nil {
		return err
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	summary, err := runner.Run(ctx, []string{root})
	if err != nil {
		return err
	}

	for i := range summary.Files {
		wc.print(out, &summary.Files[i])
	}

	sess.providers.Logger.InfoContext(ctx, "watching", "root", root, "debounce", sess.cfg.Watch.Debounce)

	return pipeline.Watch(ctx, root, sess.cfg.Watch.Debounce, func(ctx context.Context, paths []string) {
		for _, path := range paths {
			result := runner.File(ctx, path)
			wc.print(out, &result)
		}
	})
}

// print reports files that changed or failed; quiet runs print nothing.
func (wc *watchCommand) print(out io.Writer, result *pipeline.FileResult) {
	if wc.global.quiet {
		return
	}

	if result.Status != pipeline.FileChanged && result.Status != pipeline.FileFailed && !wc.global.verbose {
		return
	}

	line := report.StatusText(result.Status) + " " + result.Path
	if result.Error != "" {
		line += ": " + result.Error
	}

	fmt.Fprintln(out, line)
}

func parseDebounce(raw string) (time.Duration, error) {
	debounce, err := time.ParseDuration(raw)
	if err != nil || debounce <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDebounce, raw)
	}

	return debounce, nil
}
