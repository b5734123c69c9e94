package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facescan/facescan/internal/config"
)

var cacheExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the detection cache to a JSON file",
	Long: `Export the persisted detection cache as a JSON object mapping
photo UIDs to their cached face-presence result.

Examples:
  # Write the cache to a file
  facescan cache export cache.json

  # Print the cache to stdout
  facescan cache export`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheExport,
}

func init() {
	cacheCmd.AddCommand(cacheExportCmd)
}

func runCacheExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	detectionCache, err := buildCache(context.Background(), cfg)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(detectionCache.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if len(args) == 0 {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	fmt.Printf("exported %d entries to %s\n", detectionCache.Len(), args[0])
	return nil
}
