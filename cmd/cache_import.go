package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facescan/facescan/internal/config"
)

var cacheImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a detection cache from a JSON file",
	Long: `Replace the persisted detection cache with the contents of a JSON
file previously produced by "facescan cache export".

Example:
  facescan cache import cache.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheImport,
}

func init() {
	cacheCmd.AddCommand(cacheImportCmd)
}

func runCacheImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var entries map[string]bool
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	ctx := context.Background()
	detectionCache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}

	detectionCache.Replace(entries)
	if err := detectionCache.PersistSync(ctx); err != nil {
		return fmt.Errorf("failed to persist cache: %w", err)
	}

	fmt.Printf("imported %d entries\n", len(entries))
	return nil
}
