package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/forPelevin/vclip/internal/config"
	"github.com/forPelevin/vclip/internal/logging"
	"github.com/forPelevin/vclip/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Score highlights and render clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := buildPipelineConfig(cmd, args[0])
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("out")
			if outDir != "" {
				cfg.OutDir = outDir
			}
			cfg.ClipsN, _ = cmd.Flags().GetInt("clips")

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
			defer cancel()

			res, err := pipeline.Run(ctx, cfg)
			if err != nil {
				return err
			}
			log.Info().
				Int("rendered", len(res.Manifest.Clips)).
				Int("jobs", len(res.Renders)).
				Str("dir", res.OutDir).
				Msg("done")
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output directory (default from config)")
	cmd.Flags().Int("clips", 10, "Maximum number of clips to render")
	return cmd
}

func buildPipelineConfig(cmd *cobra.Command, input string) (pipeline.Config, zerolog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	transcript, _ := cmd.Flags().GetString("transcript")
	contentCtx, _ := cmd.Flags().GetString("context")

	log := logging.Setup(level)

	app, err := config.Load(configPath)
	if err != nil {
		return pipeline.Config{}, log, err
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return pipeline.Config{}, log, err
	}

	return pipeline.Config{
		InputPath:      absIn,
		TranscriptPath: transcript,
		OutDir:         app.Paths.OutDir,
		ClipsN:         app.Highlight.MaxCandidates,
		ContentContext: contentCtx,
		App:            app,
		Log:            log,
	}, log, nil
}
