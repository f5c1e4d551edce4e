// Command matchctl administers a devmatch deployment: schema, demo data and repairs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"devmatch/internal/auth"
	"devmatch/internal/config"
	"devmatch/internal/database"
	"devmatch/internal/events"
	"devmatch/internal/repository/postgres"
	"devmatch/internal/seed"
	"devmatch/internal/service"
)

const (
	Version = "0.1.0"
	appName = "matchctl"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: config, a logger and, lazily, storage.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	e := &env{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Administer a devmatch deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.cfg = config.Load()
			if logLevel != "" {
				e.cfg.LogLevel = logLevel
			}
			e.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: config.ParseLogLevel(e.cfg.LogLevel),
			}))
			slog.SetDefault(e.logger)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")

	cmd.AddCommand(
		migrateCmd(e),
		dropCmd(e),
		clearCmd(e),
		seedCmd(e),
		repairRoomsCmd(e),
		reconcileCmd(e),
		tokenCmd(e),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// openPostgres refuses to fall back to memory storage; a CLI run against it would do nothing.
func (e *env) openPostgres(ctx context.Context, migrate bool) (*database.DB, error) {
	if e.cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return database.Connect(ctx, e.cfg, migrate, e.logger)
}

func (e *env) blockInProd(action string) error {
	if e.cfg.IsProd() {
		return fmt.Errorf("refusing to %s in the prod environment", action)
	}
	return nil
}

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openPostgres(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Printf("schema ready (prefix %q)\n", e.cfg.TablePrefix)
			return nil
		},
	}
}

func dropCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table for the current environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.blockInProd("drop tables"); err != nil {
				return err
			}
			if !yes {
				return errors.New("pass --yes to drop all tables")
			}
			db, err := e.openPostgres(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.DropSchema(cmd.Context(), db.Pool, db.Tables); err != nil {
				return err
			}
			fmt.Printf("dropped tables (prefix %q)\n", e.cfg.TablePrefix)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the drop")
	return cmd
}

func clearCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all rows but keep the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.blockInProd("clear data"); err != nil {
				return err
			}
			db, err := e.openPostgres(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.ClearData(cmd.Context(), db.Pool, db.Tables); err != nil {
				return err
			}
			fmt.Println("data cleared")
			return nil
		},
	}
}

func seedCmd(e *env) *cobra.Command {
	var (
		password  string
		authUsers bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo profiles, a project, swipes and matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.blockInProd("seed demo data"); err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := e.openPostgres(ctx, true)
			if err != nil {
				return err
			}
			defer db.Close()

			policy, err := config.LoadPolicy(e.cfg.MatchingPolicyFile)
			if err != nil {
				return err
			}

			var admin *auth.AdminClient
			if authUsers {
				if e.cfg.SupabaseURL == "" || e.cfg.SupabaseServiceKey == "" {
					return errors.New("--auth-users needs SUPABASE_URL and SUPABASE_SERVICE_KEY")
				}
				admin = auth.NewAdminClient(e.cfg.SupabaseURL, e.cfg.SupabaseServiceKey)
			}

			svc := service.SetupServices(db, policy, nil, nil, e.logger)
			res, err := seed.NewDemoSeeder(svc, admin, password, e.logger).Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d profiles, %d projects, %d swipes, %d matches\n",
				res.Profiles, res.Projects, res.Swipes, res.Matches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&authUsers, "auth-users", false, "Also create Supabase auth users for the demo profiles")
	cmd.Flags().StringVar(&password, "password", "devmatch-demo", "Password for created auth users")
	return cmd
}

func repairRoomsCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "repair-rooms",
		Short: "Create chat rooms for matches that are missing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := e.openPostgres(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			policy, err := config.LoadPolicy(e.cfg.MatchingPolicyFile)
			if err != nil {
				return err
			}

			svc := service.SetupServices(db, policy, nil, nil, e.logger)
			n, err := svc.Matches.RepairMissingRooms(ctx, limit)
			fmt.Printf("repaired %d chat rooms\n", n)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 500, "Maximum matches to repair in one run")
	return cmd
}

func reconcileCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Create matches for mutual interests whose detection never completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := e.openPostgres(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			policy, err := config.LoadPolicy(e.cfg.MatchingPolicyFile)
			if err != nil {
				return err
			}

			// Connected clients hear about recovered matches when NATS is configured.
			var publisher events.Publisher
			if e.cfg.NATSURL != "" {
				bus, err := events.ConnectNATS(e.cfg.NATSURL, e.logger)
				if err != nil {
					return fmt.Errorf("connect to NATS: %w", err)
				}
				defer bus.Close()
				publisher = bus
			}

			svc := service.SetupServices(db, policy, publisher, nil, e.logger)
			n, err := svc.Matches.ReconcilePending(ctx, nil, limit)
			fmt.Printf("provisioned %d pending matches\n", n)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 500, "Maximum mutual interests to reconcile in one run")
	return cmd
}

func tokenCmd(e *env) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET (dev and test only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.blockInProd("mint tokens"); err != nil {
				return err
			}
			verifier, err := auth.NewHMACVerifier(e.cfg.JWTSecret, e.logger)
			if err != nil {
				return err
			}
			token, err := verifier.IssueToken(userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", seed.DemoUsers[0].ID, "User ID (the token subject)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
