package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facescan/facescan/internal/config"
	"github.com/facescan/facescan/internal/engine"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan the photo library for photos with prominent faces",
	Long: "Runs face detection over the whole library in batches, " +
		"skipping photos already present in the detection cache, " +
		"and prints the UID of every photo with a sufficiently large face.",
	Run: func(cmd *cobra.Command, args []string) {
		quiet := mustGetBool(cmd, "quiet")

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("could not load config: %s\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		eng, _, err := buildEngine(ctx, cfg)
		if err != nil {
			fmt.Printf("could not build detection engine: %s\n", err)
			os.Exit(1)
		}
		defer eng.Close()

		if err := runDetection(eng, quiet); err != nil {
			fmt.Printf("detection failed: %s\n", err)
			os.Exit(1)
		}
	},
}

// runDetection drives the engine to completion: Detect starts the session,
// every resume phase requests the next batch, finished ends the loop.
func runDetection(eng *engine.Engine, quiet bool) error {
	state := eng.State()
	events := state.Subscribe()
	defer state.Unsubscribe(events)

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("scanning photos"),
			progressbar.OptionSpinnerType(14),
		)
	}

	eng.Detect()

	for event := range events {
		switch event.Type {
		case engine.EventPhase:
			switch event.Phase {
			case engine.PhaseResume:
				eng.LoadMore()
			case engine.PhaseFinished:
				if bar != nil {
					_ = bar.Finish()
					fmt.Println()
				}
				results := state.Results()
				fmt.Printf("found %d photos with faces\n", len(results))
				for _, asset := range results {
					fmt.Println(asset.UID)
				}
				return nil
			}
		case engine.EventResultsAppended, engine.EventResultsReplaced:
			if bar != nil {
				_ = bar.Add(len(event.Batch))
			}
		}
	}

	return fmt.Errorf("state closed before detection finished")
}

func init() {
	detectCmd.Flags().BoolP("quiet", "q", false, "suppress the progress bar")
	rootCmd.AddCommand(detectCmd)
}
