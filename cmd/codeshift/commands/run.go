package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codeshift/pkg/observability"
	"github.com/Sumatoshi-tech/codeshift/pkg/pipeline"
	"github.com/Sumatoshi-tech/codeshift/pkg/report"
)

// stdinArg selects stdin as the only input.
const stdinArg = "-"

// defaultStdinPath names stdin input when --stdin-path is not given.
const defaultStdinPath = "stdin.js"

// ErrFilesFailed is returned when at least one file failed to migrate.
var ErrFilesFailed = errors.New("some files failed to migrate")

// RunCommand holds the flags of the run command.
type RunCommand struct {
	global    *globalOptions
	pipeline  pipelineFlags
	format    string
	stdinPath string
	dryRun    bool
	diff      bool
}

func newRunCommand(global *globalOptions) *cobra.Command {
	rc := &RunCommand{global: global}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Migrate files or stdin",
		Long: `Migrate the JavaScript, TypeScript and Vue files under the given paths
(default: current directory). Use "-" to read stdin and write the result to stdout.`,
		RunE: rc.run,
	}

	rc.pipeline.register(cmd)

	cmd.Flags().BoolVarP(&rc.dryRun, "dry-run", "n", false, "Report changes without writing files")
	cmd.Flags().BoolVar(&rc.diff, "diff", false, "Print a unified diff of every changed file")
	cmd.Flags().StringVarP(&rc.format, "format", "f", report.FormatTable, "Output format: table, json, yaml")
	cmd.Flags().StringVar(&rc.stdinPath, "stdin-path", defaultStdinPath,
		"Path used for dialect detection and package.json lookup when reading stdin")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	err := report.ValidateFormat(rc.format)
	if err != nil {
		return err
	}

	sess, err := rc.global.open(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close()

	fromStdin := len(args) == 1 && args[0] == stdinArg

	runner, err := rc.pipeline.runner(cmd, sess, rc.dryRun || fromStdin)
	if err != nil {
		return err
	}

	if fromStdin {
		return rc.runStdin(cmd, runner, sess)
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	summary, runErr := runner.Run(cmd.Context(), args)
	if summary != nil && !(rc.global.quiet && rc.format == report.FormatTable) {
		writeErr := report.Write(cmd.OutOrStdout(), summary, report.Options{
			Format:  rc.format,
			Verbose: rc.global.verbose,
			Diff:    rc.diff,
		})
		if writeErr != nil {
			return writeErr
		}
	}

	if runErr != nil {
		return runErr
	}

	if summary.Counts[string(pipeline.FileFailed)] > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, summary.Counts[string(pipeline.FileFailed)], len(summary.Files))
	}

	return nil
}

// runStdin migrates stdin to stdout. Diagnostics go to the log since stdout
// carries the source.
func (rc *RunCommand) runStdin(cmd *cobra.Command, runner *pipeline.Runner, sess *session) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	result := runner.Source(cmd.Context(), rc.stdinPath, src)

	for _, d := range result.Diagnostics {
		sess.providers.Logger.WarnContext(cmd.Context(), d.Msg, "rule", d.Rule, "line", d.Line, "column", d.Column)
	}

	if rc.diff {
		_, err = io.WriteString(cmd.OutOrStdout(), report.UnifiedDiff(rc.stdinPath, result.Original, result.Output))
	} else {
		_, err = cmd.OutOrStdout().Write(result.Output)
	}

	if err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}

	if result.Err != nil {
		return fmt.Errorf("%s: %w", rc.stdinPath, result.Err)
	}

	return nil
}
