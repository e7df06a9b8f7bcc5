package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/pipeline"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runcoord"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runstore"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/scoring"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/services/judge"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run <segments.json>",
		Short: "Run the full highlight pipeline on a segments file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			inputPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			store, err := runstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer func() { _ = store.Close() }()

			coord := runcoord.New(filepath.Join(cfg.Paths.StateDir, "sejmhl.lock"), logger)
			pipe := pipeline.New(cfg, coord, store, newJudge(cfg), logger)

			outcome, err := pipe.Run(cmd.Context(), inputPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(outcome)
			}

			fmt.Fprintln(out, heading(fmt.Sprintf("Run %s complete", outcome.RunID), shouldColorize(out)))
			fmt.Fprintf(out, "Selected %d clips, %.0fs total (mean score %.2f)\n",
				outcome.Selection.Count, outcome.Selection.TotalDuration, outcome.Selection.MeanScore)
			fmt.Fprintf(out, "Plan: %s\n", outcome.Plan.Justification)
			fmt.Fprintln(out, renderParts(outcome))
			for _, diag := range outcome.Diagnostics {
				fmt.Fprintf(out, "note [%s]: %s\n", diag.Type, diag.Message)
			}
			fmt.Fprintf(out, "Artifacts written to %s\n", outcome.OutputDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full run outcome as JSON")
	return cmd
}

// newJudge builds the semantic judge client, or nil when no API key is
// configured so scoring degrades to local signals.
func newJudge(cfg *config.Config) scoring.Judge {
	if strings.TrimSpace(cfg.Judge.APIKey) == "" {
		return nil
	}
	return judge.NewClient(judge.Config{
		APIKey:         cfg.Judge.APIKey,
		BaseURL:        cfg.Judge.BaseURL,
		Model:          cfg.Judge.Model,
		Language:       cfg.Language,
		TimeoutSeconds: cfg.Judge.TimeoutSeconds,
	})
}

func renderParts(outcome *pipeline.Outcome) string {
	headers := []string{"Part", "Title", "Clips", "Duration", "Scheduled", "Avg score"}
	rows := make([][]string, 0, len(outcome.Parts))
	for _, part := range outcome.Parts {
		rows = append(rows, []string{
			fmt.Sprintf("%d/%d", part.PartNumber, part.TotalParts),
			part.Title,
			fmt.Sprintf("%d", len(part.Clips)),
			formatSeconds(part.ActualDuration),
			part.ScheduledAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", part.AvgScore),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight}
	return renderTable(headers, rows, aligns)
}

func formatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
