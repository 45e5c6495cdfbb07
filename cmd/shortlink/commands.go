package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqlstore"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

type options struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "shortlink",
		Short:        "URL shortener with click statistics and an admin console.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}

			path := opts.configPath
			if path == "" {
				path = os.Getenv("CONFIG_PATH")
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file (default $CONFIG_PATH)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCreateCmd(opts),
	)

	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default command).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}
}

func serve(cmd *cobra.Command, opts *options) error {
	logger := app.NewLogger(opts.cfg)

	if err := app.Run(cmd.Context(), opts.cfg, logger); err != nil {
		logger.Error("application stopped", "err", err)
		return err
	}

	return nil
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Migrate(opts.cfg); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var longURL, alias string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a short link from the command line.",
		Example: `  shortlink create --url "https://www.google.com/search?q=go+lang"
  shortlink create --url https://example.com --alias promo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg

			if err := app.Migrate(cfg); err != nil {
				return err
			}

			db, err := app.OpenDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			uc := usecase.New(cfg.AliasLength, sqlstore.NewLinkRepository(db))

			link, err := uc.Shorten(cmd.Context(), longURL, alias)
			if err != nil {
				return err
			}

			base := cfg.BaseURL
			if base == "" {
				base = "http://localhost" + cfg.HTTPServer.Addr()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", base, link.Alias)
			return nil
		},
	}

	cmd.Flags().StringVar(&longURL, "url", "", "long URL to shorten")
	cmd.Flags().StringVar(&alias, "alias", "", "custom alias (generated when empty)")
	cmd.MarkFlagRequired("url")

	return cmd
}
