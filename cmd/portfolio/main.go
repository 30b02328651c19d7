package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio-backend/internal/api"
	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/logging"
	"portfolio-backend/internal/provision"
	"portfolio-backend/internal/schema"
	"portfolio-backend/internal/seed"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "portfolio",
	Short:         "Portfolio site backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveProvision bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create or update every portfolio collection, attribute and index",
	Long: `Brings the configured backend in line with the portfolio schema.
Existing collections are updated; attributes and indexes that already
exist are left alone, so the command is safe to run repeatedly.`,
	RunE: runProvision,
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample content into a provisioned backend",
	RunE:  runSeed,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash to use as auth.admin_password_hash",
	Args:  cobra.ExactArgs(1),
	// No config is needed to hash a password.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./portfolio.yaml or ./config/portfolio.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	serveCmd.Flags().BoolVar(&serveProvision, "provision", false, "provision the schema before serving")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed YAML file (default: built-in sample content)")

	rootCmd.AddCommand(serveCmd, provisionCmd, seedCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newProvisioner(b *backend) *provision.Provisioner {
	return provision.New(b.client,
		provision.WithLogger(logger.Named("provision")),
		provision.WithAttributeDelay(cfg.Provision.AttributeDelay),
	)
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	report, err := newProvisioner(b).Run(ctx, schema.Portfolio()...)
	if err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	for _, c := range report.Collections {
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s attributes +%d/=%d indexes +%d/=%d\n",
			c.ID, len(c.AttributesCreated), len(c.AttributesExisting), len(c.IndexesCreated), len(c.IndexesExisting))
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	data, err := loadSeedData(seedFile)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := seed.NewLoader(b.client, seed.WithLogger(logger.Named("seed"))).Load(ctx, data)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d, existing %d, skipped %d, warnings %d\n",
		res.Created, res.Existing, res.Skipped, len(res.Warnings))
	return nil
}

func loadSeedData(path string) (*seed.Data, error) {
	if path == "" {
		return seed.Sample()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return seed.Parse(b)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	prov := newProvisioner(b)
	if serveProvision {
		if _, err := prov.Run(ctx, schema.Portfolio()...); err != nil {
			return fmt.Errorf("provision: %w", err)
		}
	}

	if cfg.Auth.AdminPasswordHash == "" {
		logger.Warn("auth.admin_password_hash is empty; admin login is disabled")
	}
	app := api.New(api.Deps{
		Docs:        b.client,
		Registry:    schema.NewRegistry(schema.Portfolio()...),
		Provisioner: prov,
		Operator: auth.Operator{
			Email:        cfg.Auth.AdminEmail,
			PasswordHash: cfg.Auth.AdminPasswordHash,
			Secret:       cfg.Auth.JWTSecret,
			TTL:          cfg.Auth.TokenTTL,
		},
		Logger: logger.Named("api"),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("starting server", zap.String("addr", addr), zap.String("backend", cfg.Backend.Driver))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
