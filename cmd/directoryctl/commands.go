package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/auth"
	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/persistence"
	"github.com/spec-kit/employee-directory/internal/seed"
)

const hireDateLayout = "2006-01-02"

// env carries what every subcommand needs; it is filled by the root pre-run.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:   "directoryctl",
		Short: "directoryctl - administration tool for the employee directory",
		Long: `directoryctl administers the employee directory store and sessions.

Settings are read from the same environment variables as the server
(STORE_DRIVER, POSTGRES_DSN, SQLITE_PATH, REDIS_ADDR, SESSION_SECRET, ...).
A .env file in the working directory is loaded first when present.
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.App, cfg.Logger)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			e.cfg = cfg
			e.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	cmd.AddCommand(newMigrateCmd(e), newSeedCmd(e), newSessionCmd(e))
	return cmd
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := persistence.OpenStore(cmd.Context(), e.cfg, e.logger, true)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", store.Driver)
			return nil
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	var (
		count     int
		firstHire string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return errors.New("--count must be at least 1")
			}
			start, err := time.Parse(hireDateLayout, firstHire)
			if err != nil {
				return fmt.Errorf("--first-hire: %w", err)
			}

			store, err := persistence.OpenStore(cmd.Context(), e.cfg, e.logger, true)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := seed.Insert(cmd.Context(), store.Employees, seed.Employees(count, start)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d employees\n", count)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "number of employees to insert")
	cmd.Flags().StringVar(&firstHire, "first-hire", "2015-04-01", "hire date of the first generated employee (YYYY-MM-DD)")
	return cmd
}

func newSessionCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage developer sessions",
	}

	var username string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Create a session and print the cookie value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			redis := persistence.NewRedis(ctx, e.cfg.Redis, e.logger)
			defer redis.Close()
			if err := redis.Ping(ctx); err != nil {
				return fmt.Errorf("redis unavailable: %w", err)
			}

			tokens := auth.NewTokenManager(e.cfg.Session.Secret, e.cfg.Session.TTL())
			token, expires, err := auth.NewSessions(tokens, auth.NewRedisSessionStore(redis.Client)).Issue(ctx, username)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\nexpires %s\n", e.cfg.Session.CookieName, token, expires.Format(time.RFC3339))
			return nil
		},
	}
	issue.Flags().StringVar(&username, "username", "", "name shown in the page header")
	cmd.AddCommand(issue)
	return cmd
}
