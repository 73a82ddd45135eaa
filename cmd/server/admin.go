package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-alignment-backend/internal/catalog"
	"github.com/tbourn/go-alignment-backend/internal/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		defer closeDB(db)
		log.Info().Str("db", cfg.DBPath).Msg("schema up to date")
		return nil
	},
}

var resetSessionCmd = &cobra.Command{
	Use:   "reset-session <user-id> <session-id>",
	Short: "Send a session back to step 1 and clear its progress",
	Long: `Resets a session to step 1: completion, deliverable and follow-up
counters are cleared. Placements are kept but must be confirmed again.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		defer closeDB(db)
		cat, err := catalog.Load(cfg.ProductsPath)
		if err != nil {
			return err
		}

		svc := services.NewSessionService(db, cat, services.NewPropagator())
		sess, err := svc.Reset(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		log.Info().
			Str("session_id", sess.ID).
			Str("product", sess.ProductSlug).
			Int("version", sess.Version).
			Msg("session reset")
		return nil
	},
}

var revokeUnlimited bool

var grantUnlimitedCmd = &cobra.Command{
	Use:   "grant-unlimited <user-id> <product-slug>",
	Short: "Lift the free-attempt limit for one user and product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(false)
		if err != nil {
			return err
		}
		defer closeDB(db)
		cat, err := catalog.Load(cfg.ProductsPath)
		if err != nil {
			return err
		}

		svc := services.NewVersionService(db, cat, services.NewPropagator(), cfg.FreeAttemptsLimit, cfg.AdminUserIDs, cfg.IdempotencyTTL)
		if err := svc.GrantUnlimited(cmd.Context(), args[0], args[1], !revokeUnlimited); err != nil {
			return err
		}
		q, err := svc.CanCreateVersion(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: used %d, limit %d, unlimited=%v\n",
			args[0], args[1], q.AttemptsUsed, q.AttemptsLimit, q.Unlimited)
		return nil
	},
}

func init() {
	grantUnlimitedCmd.Flags().BoolVar(&revokeUnlimited, "revoke", false, "remove the override instead of granting it")
}
