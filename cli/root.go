// Package cli wires configuration, logging and storage into the loreboard
// commands.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/loreboardbackend/config"
	"github.com/camden-git/loreboardbackend/database"
	"github.com/camden-git/loreboardbackend/logging"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app holds state shared by subcommands once PersistentPreRunE has run.
type app struct {
	configFile string
	envFile    string
	dev        bool

	cfg    config.Config
	logger *zap.Logger
}

// NewRootCommand builds the loreboard command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "loreboard",
		Short:         "LoreBoard tracks the characters, places and items of a story",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "optional YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVar(&a.dev, "dev", false, "human readable development logging")

	root.AddCommand(a.serveCommand())
	root.AddCommand(a.migrateCommand())
	root.AddCommand(a.detectCommand())
	root.AddCommand(versionCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	envLoaded := true
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", a.envFile, err)
			}
			envLoaded = false
		}
	}

	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel, a.dev)
	if err != nil {
		return err
	}
	a.logger = logger

	if !envLoaded {
		logger.Debug("no dotenv file found", zap.String("path", a.envFile))
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return nil
}

// openDatabase opens the SQLite database and migrates the schema.
func (a *app) openDatabase() (*gorm.DB, error) {
	if dir := filepath.Dir(a.cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := database.InitGormDB(a.cfg.DatabasePath, a.logger.Named("gorm"))
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrateModels(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}
