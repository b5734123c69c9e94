package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facescan",
	Short: "Batched face-presence detection for photo libraries",
	Long: `Facescan walks a PhotoPrism photo library in batches, runs a local
face detector against downscaled thumbnails, and keeps a persistent cache of
which photos contain a face large enough to matter in a gallery view.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
