// Command server runs the alignment sessions API and its maintenance tasks.
//
//	@title			Alignment Sessions API
//	@version		1.0
//	@description	Product sessions, placement confirmation, step progression and versioning.
//	@BasePath		/api/v1
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-alignment-backend/internal/config"
	"github.com/tbourn/go-alignment-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Alignment sessions API",
	Long: `Serves product sessions: placement confirmation, step progression
and versioning under a free-attempt quota.

Configuration comes from the environment (a .env file is loaded when present).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c

		zerolog.TimeFieldFormat = time.RFC3339Nano
		if cfg.LogPretty {
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
				NoColor:    sysutil.IsTruthy(os.Getenv("NO_COLOR")),
			})
		}
		sysutil.SetLogLevel(cfg.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(serveCmd, migrateCmd, resetSessionCmd, grantUnlimitedCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
