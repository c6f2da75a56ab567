package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorrc/ticket-reports/internal/adapters/secondary/backend"
	"github.com/lorrc/ticket-reports/internal/adapters/secondary/postgres"
	"github.com/lorrc/ticket-reports/internal/app"
	"github.com/lorrc/ticket-reports/internal/auth"
	"github.com/lorrc/ticket-reports/internal/core/domain"
)

var (
	tokenSubject string
	tokenRole    string

	backendURL     string
	backendAnonKey string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for the report API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.AuthEnabled() {
			return errors.New("JWT_SECRET is not set")
		}
		role := domain.Role(tokenRole)
		if !role.IsValid() {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		if strings.TrimSpace(tokenSubject) == "" {
			return errors.New("--subject is required")
		}

		tm := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
		token, err := tm.GenerateToken(strings.TrimSpace(tokenSubject), role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Inspect or change the hosted backend connection",
}

var backendShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective backend settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := app.BackendSettings(cfg, logger)
		key := "(unset)"
		if s.AnonKey != "" {
			key = "(set)"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "url:      %s\n", s.URL)
		fmt.Fprintf(out, "anon key: %s\n", key)
		fmt.Fprintf(out, "valid:    %t\n", s.Valid())
		return nil
	},
}

var backendSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store backend settings in the local override file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Backend.OverridesFile == "" {
			return errors.New("BACKEND_OVERRIDES_FILE is empty")
		}
		s := backend.Settings{
			URL:     strings.TrimSpace(backendURL),
			AnonKey: strings.TrimSpace(backendAnonKey),
		}
		if !s.Valid() {
			return errors.New("--url must start with http and --anon-key must not be empty")
		}
		if err := backend.SaveOverrides(cfg.Backend.OverridesFile, s); err != nil {
			return fmt.Errorf("write %s: %w", cfg.Backend.OverridesFile, err)
		}
		logger.Info("backend overrides saved", "path", cfg.Backend.OverridesFile)
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy tickets and users from the hosted backend into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		reports, err := a.BackendReports()
		if err != nil {
			return err
		}
		snap, err := a.Snapshotter()
		if err != nil {
			return err
		}

		ds, err := reports.LoadDataset(cmd.Context())
		if err != nil {
			return err
		}
		res, err := snap.Import(cmd.Context(), ds)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d tickets and %d users\n", res.Tickets, res.Users)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or revert the snapshot schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		direction := postgres.MigrateUp
		if args[0] == "down" {
			direction = postgres.MigrateDown
		}
		if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath, direction); err != nil {
			return err
		}
		logger.Info("migrations applied", "direction", args[0], "path", cfg.Database.MigrationsPath)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject, e.g. a dashboard name")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleStaff), "Admin, Technician or Staff")

	backendSetCmd.Flags().StringVar(&backendURL, "url", "", "backend base URL")
	backendSetCmd.Flags().StringVar(&backendAnonKey, "anon-key", "", "backend anonymous API key")
	backendCmd.AddCommand(backendShowCmd, backendSetCmd)

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(backendCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(migrateCmd)
}
