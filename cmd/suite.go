package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/speckled/internal/observability"
	"github.com/xkilldash9x/speckled/internal/reporting"
	"github.com/xkilldash9x/speckled/internal/suite"
)

// newSuiteCmd creates the `suite` command.
func newSuiteCmd(a *app) *cobra.Command {
	var format string
	suiteCmd := &cobra.Command{
		Use:   "suite <suite.yaml>",
		Short: "Runs every spec in a suite file concurrently and writes a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			specs, err := suite.Load(args[0])
			if err != nil {
				return err
			}

			var reporter reporting.Reporter
			if output := a.cfg.Suite().Output; output == "" || output == "stdout" {
				reporter, err = reporting.NewWithWriter(format, nopWriteCloser{cmd.OutOrStdout()})
			} else {
				reporter, err = reporting.New(format, output)
			}
			if err != nil {
				return err
			}

			comps, err := initializeComponents(ctx, a.cfg, logger)
			if err != nil {
				_ = reporter.Close()
				return err
			}
			defer comps.Shutdown(logger)

			results := suite.NewRunner(logger, comps.agent, a.cfg.Suite().Concurrency).Run(ctx, specs, reporter)
			if err := reporter.Close(); err != nil {
				return err
			}

			if err := ctx.Err(); err != nil {
				return err
			}
			for _, r := range results {
				if !r.Passed() {
					return ErrSpecsFailed
				}
			}
			return nil
		},
	}
	addAgentFlags(suiteCmd)
	suiteCmd.Flags().IntP("concurrency", "j", 2, "Number of specs run at once. (Overrides config/env)")
	suiteCmd.Flags().StringP("output", "o", "", "Report file path. If unset, the report is printed to stdout.")
	suiteCmd.Flags().StringVarP(&format, "format", "f", "json", "Report format: 'json' or 'text'.")
	return suiteCmd
}
