package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/facescan/facescan/internal/config"
	"github.com/facescan/facescan/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the detection HTTP server",
	Long: "Serves the detection API: start a session, load more batches, " +
		"read results and follow progress over server-sent events.",
	Run: func(cmd *cobra.Command, args []string) {
		host := mustGetString(cmd, "host")
		port := mustGetInt(cmd, "port")

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

		server := web.NewServer(eng, host, port)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			fmt.Printf("listening on %s:%d\n", host, port)
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				fmt.Printf("server error: %s\n", err)
				os.Exit(1)
			}
		}()

		<-stop
		fmt.Println("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("shutdown error: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "address to bind")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}
