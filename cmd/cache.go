package cmd

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Detection cache management commands",
	Long:  `Commands for inspecting and moving the persisted detection cache.`,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
