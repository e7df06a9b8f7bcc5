package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/packing"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <selected-duration-seconds>",
		Short: "Preview the part split for a selected duration",
		Long: "Derives the packing plan the pipeline would use for a selection of the " +
			"given total duration, without running anything.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			duration, err := strconv.ParseFloat(args[0], 64)
			if err != nil || duration < 0 {
				return fmt.Errorf("invalid duration %q: expected seconds as a non-negative number", args[0])
			}

			packer := packing.NewPacker(packing.Options{
				TargetDuration:      cfg.Selection.TargetTotalDuration,
				MinDurationForSplit: cfg.Packing.MinDurationForSplit,
				Tolerance:           cfg.Selection.DurationTolerance,
				Cadence:             time.Duration(cfg.Packing.PremiereCadenceHours) * time.Hour,
				MaxParts:            cfg.Packing.MaxParts,
				Language:            cfg.Language,
			}, logging.NewNop())

			plan := packer.Plan(duration)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Selected duration: %s\n", formatSeconds(duration))
			fmt.Fprintf(out, "Parts: %d (split: %s)\n", plan.NumParts, yesNo(plan.Split))
			fmt.Fprintf(out, "Per-part target: %s\n", formatSeconds(plan.PartTargetDuration))
			fmt.Fprintf(out, "Reason: %s\n", plan.Justification)
			return nil
		},
	}
}
