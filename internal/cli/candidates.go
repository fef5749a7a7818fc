package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/forPelevin/vclip/internal/pipeline"
)

// newCandidatesCmd scores the transcript and prints what `run` would
// render, without touching ffmpeg.
func newCandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <input>",
		Short: "Score highlights and print the selected candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := buildPipelineConfig(cmd, args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			cands, err := pipeline.ScoreCandidates(ctx, cfg)
			if err != nil {
				return err
			}
			if len(cands) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no candidates scored above the threshold")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"#", "Start", "End", "Dur", "Score", "Reason"})
			for i, c := range cands {
				t.AppendRow(table.Row{
					i + 1,
					fmtClock(c.Start),
					fmtClock(c.End),
					c.Duration().Round(time.Second),
					fmt.Sprintf("%.0f", c.Score),
					c.Reason,
				})
			}
			t.Render()
			return nil
		},
	}
}

func fmtClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
