package cmd

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/internal/agent"
	"github.com/xkilldash9x/speckled/internal/observability"
	"github.com/xkilldash9x/speckled/internal/protocol"
	"github.com/xkilldash9x/speckled/internal/reporting"
	"github.com/xkilldash9x/speckled/internal/suite"
)

// addAgentFlags registers the overrides shared by run and suite.
func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-steps", 10, "Maximum oracle calls per run. (Overrides config/env)")
	cmd.Flags().Int("settle-delay-ms", 500, "Pause after each action before observing again. (Overrides config/env)")
	cmd.Flags().String("observation-mode", "text", "How pages are shown to the oracle: 'text' or 'image'. (Overrides config/env)")
	cmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	cmd.Flags().String("provider", "gemini", "LLM provider: 'gemini' or 'ollama'. (Overrides config/env)")
	cmd.Flags().String("model", "", "LLM model name. (Overrides config/env)")
}

// newRunCmd creates the `run` command.
func newRunCmd(a *app) *cobra.Command {
	var (
		format  string
		verbose bool
	)
	runCmd := &cobra.Command{
		Use:   "run <description> [target-url]",
		Short: "Runs one natural-language test specification against a page",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			spec := suite.Spec{Name: "run", Description: args[0]}
			if len(args) > 1 {
				spec.Target = args[1]
			}
			specs, err := suite.Validate([]suite.Spec{spec})
			if err != nil {
				return err
			}

			comps, err := initializeComponents(ctx, a.cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown(logger)
			if verbose {
				errOut := cmd.ErrOrStderr()
				comps.agent.SetStepListener(func(ev agent.StepEvent) {
					fmt.Fprintf(errOut, "step %d (%d elements): %s\n", ev.Step, ev.Elements, protocol.Encode(ev.Instruction))
				})
			}

			result := suite.NewRunner(logger, comps.agent, 1).Run(ctx, specs, nil)[0]

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				r := reporting.NewTextReporter(nopWriteCloser{out})
				if err := r.Write(&result); err != nil {
					return err
				}
				if err := r.Close(); err != nil {
					return err
				}
			default:
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(&result); err != nil {
					return fmt.Errorf("failed to write result: %w", err)
				}
			}

			if err := ctx.Err(); err != nil {
				return err
			}
			if !result.Passed() {
				logger.Debug("Spec did not pass.", zap.String("failure_kind", result.FailureKind))
				return ErrSpecsFailed
			}
			return nil
		},
	}
	addAgentFlags(runCmd)
	runCmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: 'json' or 'text'.")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print each instruction to stderr as it is carried out.")
	return runCmd
}
