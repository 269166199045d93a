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
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"production_report/internal/dpr"
	"production_report/internal/importer"
	"production_report/internal/ledger"
	"production_report/internal/models"
	"production_report/internal/settings"
	"production_report/internal/store"
)

var (
	envFile string

	cfg *Config
	log *logrus.Logger

	newUsername string
	newPassword string
	newFullName string
	newRole     string
)

var rootCmd = &cobra.Command{
	Use:   "production_report",
	Short: "Moulding shop daily production report service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "recalc" {
			return nil
		}
		var err error
		if cfg, err = loadConfig(envFile); err != nil {
			return err
		}
		log, err = newLogger(cfg)
		return err
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema up to date")
		return nil
	},
}

var recalcCmd = &cobra.Command{
	Use:   "recalc [report.json]",
	Short: "Rebuild and validate a report read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return recalc(in, cmd.OutOrStdout())
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Add a user, typically the first admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newUsername == "" || len(newPassword) < 6 {
			return errors.New("--username and a --password of at least 6 characters are required")
		}
		if newRole != models.RoleAdmin && newRole != models.RoleUser {
			return fmt.Errorf("unknown role %q", newRole)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		db, err := store.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		u := models.User{Username: newUsername, FullName: newFullName, Role: newRole}
		if err := db.CreateUser(cmd.Context(), &u, string(hash)); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		log.WithFields(logrus.Fields{"id": u.ID, "username": u.Username, "role": u.Role}).Info("user created")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before the process environment")

	createUserCmd.Flags().StringVar(&newUsername, "username", "", "Login name")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "Initial password")
	createUserCmd.Flags().StringVar(&newFullName, "full-name", "", "Display name")
	createUserCmd.Flags().StringVar(&newRole, "role", models.RoleAdmin, "admin or user")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recalcCmd)
	rootCmd.AddCommand(createUserCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required to serve")
	}

	layouts := importer.DefaultLayouts()
	if cfg.LayoutsFile != "" {
		f, err := os.Open(cfg.LayoutsFile)
		if err != nil {
			return err
		}
		layouts, err = importer.LoadLayouts(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	prefs := settings.Defaults()
	if cfg.UIDefaultsFile != "" {
		f, err := os.Open(cfg.UIDefaultsFile)
		if err != nil {
			return err
		}
		prefs, err = settings.LoadDefaults(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	log.Info("connecting to database")
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	poster := ledger.NewClient(cfg.LedgerURL, cfg.ledgerTimeout(), cfg.ledgerRetryDelay(), log.WithField("component", "ledger"))
	a := newApp(db, cfg, log, prefs, layouts, poster)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.Address).Info("server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// recalc rebuilds every derived value of a report document and prints
// it with its field errors. It fails when any field error remains.
func recalc(in io.Reader, out io.Writer) error {
	var d dpr.DPRData
	if err := json.NewDecoder(in).Decode(&d); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	dpr.Rebuild(&d)
	errs := dpr.Validate(&d)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"report": d, "errors": errs}); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d field errors", len(errs))
	}
	return nil
}
