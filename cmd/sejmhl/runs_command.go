package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var outcome string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.List(cmd.Context(), runstore.ListFilter{Outcome: outcome, Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			headers := []string{"Run", "Started", "Outcome", "Clips", "Duration", "Parts", "Notes"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID,
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Outcome,
					fmt.Sprintf("%d", run.ClipCount),
					formatSeconds(run.SelectedDuration),
					fmt.Sprintf("%d", run.PartCount),
					fmt.Sprintf("%d", run.DiagnosticCount),
				})
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (succeeded, failed)")
	return cmd
}
