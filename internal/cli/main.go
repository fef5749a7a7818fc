package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "vclip",
		Short:        "Cut and render vertical highlight clips from a local video",
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "vclip.toml", "Config file (TOML)")
	root.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	root.PersistentFlags().String("transcript", "", "Transcript JSON path (default: <transcripts_dir>/<input>.json)")
	root.PersistentFlags().String("context", "", "Short description of the video, passed to the scoring prompt")

	root.AddCommand(newRunCmd(), newCandidatesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
