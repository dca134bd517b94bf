package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nikhilv/trailz/internal/config"
	"github.com/nikhilv/trailz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "trailz",
	Short: "Gamified learning trails in the terminal",
	Long:  "Trailz — terminal app that walks a learner through trails of phases and questions, tracking progress locally.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return playCmd.RunE(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TRAILZ_DB env var)")
	rootCmd.PersistentFlags().String("catalog", "", "Path to catalog JSON file (overrides TRAILZ_CATALOG env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to TOML config file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves file config, env vars, and flags in increasing
// priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg := config.Resolve(file)

	if p, _ := cmd.Flags().GetString("catalog"); p != "" {
		cfg.CatalogPath = p
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return config.Config{}, err
	}
	cfg.DBPath = dbPath
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then config file, then TRAILZ_DB env var, then the
// default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
