package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/santelink/santelink/internal/config"
	"github.com/santelink/santelink/internal/platform/auth"
	"github.com/santelink/santelink/internal/platform/db"
	"github.com/santelink/santelink/internal/platform/websocket"
	"github.com/santelink/santelink/internal/platform/workflow"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "santelink-server",
		Short:        "Santé-Link clinic records API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.UsesMemoryStore() {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.Migrations, "migrations").Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.Migrations, "migrations").Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-30s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-30s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a JSON form against a record schema without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			formName, _ := cmd.Flags().GetString("form")
			file, _ := cmd.Flags().GetString("file")

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			res, err := validateForm(formName, in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New("form is invalid")
			}
			return nil
		},
	}
	cmd.Flags().String("form", "", "Record type: patient, appointment or consultation")
	cmd.Flags().String("file", "-", "JSON file to validate, - for stdin")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

// validateForm decodes one JSON object from r and runs the named record
// type's schema over it.
func validateForm(formName string, r io.Reader) (workflow.Result, error) {
	var input map[string]any
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return workflow.Result{}, fmt.Errorf("decode form: %w", err)
	}

	cfg := &config.Config{SaveMaxAttempts: 1}
	svc := newServices(cfg, memoryCollections(), nil, zerolog.Nop())
	switch strings.ToLower(formName) {
	case "patient":
		return svc.patients.Validate(input), nil
	case "appointment":
		return svc.appointments.Validate(input), nil
	case "consultation":
		return svc.consultations.Validate(input), nil
	default:
		return workflow.Result{}, fmt.Errorf("unknown form %q", formName)
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token signed with AUTH_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, _ := cmd.Flags().GetString("sub")
			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			for _, r := range roles {
				if !auth.ValidRole(r) {
					return fmt.Errorf("unknown role %q", r)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(authConfig(cfg), sub, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "Subject (user id)")
	cmd.Flags().StringSlice("role", []string{auth.RoleDoctor}, "Role to grant, repeatable")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: requests without a bearer token are treated as admin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	cols := memoryCollections()
	if !cfg.UsesMemoryStore() {
		var err error
		pool, err = openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		n, err := db.NewMigrator(pool, db.Migrations, "migrations").Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Int("applied", n).Msg("schema up to date")
		cols = postgresCollections(pool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set: records are kept in memory and lost on restart")
	}

	hub := websocket.NewHub(logger)
	svc := newServices(cfg, cols, hub, logger)
	if cfg.SeedDemoData {
		if err := svc.seed(ctx, logger); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	e := newServer(cfg, logger, svc, hub, pool)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("storage", storageName(pool)).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
