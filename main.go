package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atelier/auth"
	"atelier/config"
	"atelier/database"
	"atelier/loader"
	"atelier/logging"
	"atelier/parsers"
	"atelier/sizes"
	"atelier/storage"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	ConfigPath string
	Verbose    bool

	logger *zap.Logger
}

// syncLogger flushes buffered log entries. Sync errors on stderr are ignored.
func (o *rootOptions) syncLogger() {
	if o.logger != nil {
		_ = o.logger.Sync()
	}
}

func main() {
	opts := &rootOptions{}
	err := newRootCommand(opts).Execute()
	opts.syncLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "atelier",
		Short:         "Atelier storefront and back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(opts.Verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			if opts.ConfigPath != "" {
				config.SetPath(opts.ConfigPath)
			}
			if _, err := config.LoadConfig(); err != nil {
				zap.S().Warnf("Failed to load config file: %v. Using defaults.", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./atelier_config.json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})
	cmd.AddCommand(newImportCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newHashPasswordCommand())
	return cmd
}

func openDatabase() (*sqlx.DB, error) {
	cfg := config.GetConfig()
	zap.S().Infof("Connecting to database %s...", cfg.DBPath)
	dbConn, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := loader.InitDatabase(dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}
	zap.S().Info("Database initialization complete.")
	return dbConn, nil
}

func loadSizes(path string) {
	if path == "" {
		sizes.Reset()
		return
	}
	if _, err := sizes.LoadFile(path); err != nil {
		zap.S().Warnf("Failed to load sizes file %s: %v. Using built-in sizes.", path, err)
		return
	}
	zap.S().Infof("Size table loaded from %s", path)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := openDatabase()
	if err != nil {
		return err
	}
	defer dbConn.Close()

	cfg := config.GetConfig()
	loadSizes(cfg.SizesFile)
	if cfg.WhatsAppNumber == "" {
		zap.S().Warn("No WhatsApp number configured; checkout will be unavailable.")
	}
	if cfg.JWTSecret == "" || cfg.AdminPasswordHash == "" {
		zap.S().Warn("Admin login is not configured (jwtSecret/adminPasswordHash).")
	}

	store, err := storage.NewDiskStore(cfg.MediaDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	go func() {
		err := config.Watch(ctx, func(c config.Config) {
			loadSizes(c.SizesFile)
		})
		if err != nil {
			zap.S().Warnf("Config watcher stopped: %v", err)
		}
	}()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           SetupRoutes(dbConn, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	zap.S().Infof("Starting server on %s", cfg.ListenAddr)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		zap.S().Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server start error: %w", err)
	}
}

func newImportCommand() *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "import <products.csv>",
		Short: "Import or update products from a catalog CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbConn, err := openDatabase()
			if err != nil {
				return err
			}
			defer dbConn.Close()
			loadSizes(config.GetConfig().SizesFile)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := parsers.ParseProductCSV(f, encoding)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			res, err := loader.ImportProducts(dbConn, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d updated\n", res.Created, res.Updated)
			return nil
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "utf-8", "file encoding (utf-8, latin1, windows-1252)")
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <seed.yaml>",
		Short: "Load collections, products and homepage copy from YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbConn, err := openDatabase()
			if err != nil {
				return err
			}
			defer dbConn.Close()
			loadSizes(config.GetConfig().SizesFile)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := loader.LoadSeed(dbConn, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d products created, %d updated\n", res.Created, res.Updated)
			return nil
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for adminPasswordHash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
