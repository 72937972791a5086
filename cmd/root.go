package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"artistnet/tagsim/internal/config"
	"artistnet/tagsim/internal/graph"
	"artistnet/tagsim/internal/logging"
	"artistnet/tagsim/internal/store"
)

const dbFileName = ".tagsim.db"

var (
	dbPath       string
	storeBackend string
	logLevel     string
	envFile      string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "tagsim",
	Short:         "Harvest Last.fm artist tags and compute artist/tag similarity",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		loaded, err := config.Load(files...)
		if err != nil {
			return err
		}
		cfg = loaded
		if storeBackend != "" {
			cfg.StoreBackend = storeBackend
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the "+dbFileName+" SQLite database")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Store backend: sqlite or redis (default from TAGSIM_STORE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of .env")
}

// DiscoverDB finds the database path using priority: env > flag > walk-up >
// XDG data dir. When nothing exists yet it returns ./.tagsim.db so the first
// fetch creates it there.
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, nil
	}

	// 2. CLI flag
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return "", fmt.Errorf("creating database directory: %w", err)
		}
		return dbPath, nil
	}

	// 3. Walk up from CWD
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for dir := cwd; ; {
		candidate := filepath.Join(dir, dbFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 4. XDG fallback
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "tagsim", "tagsim.db")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return filepath.Join(cwd, dbFileName), nil
}

// OpenStore opens the configured store backend
func OpenStore(ctx context.Context) (store.Store, error) {
	opts := store.Options{
		Backend:       strings.ToLower(cfg.StoreBackend),
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}
	if opts.Backend == "" || opts.Backend == store.BackendSQLite {
		path, err := DiscoverDB()
		if err != nil {
			return nil, err
		}
		opts.SQLitePath = path
	}
	return store.Open(ctx, opts)
}

// loadGraph builds the artist/tag graph from everything in the tag store
func loadGraph(ctx context.Context, src graph.TagSource) (*graph.Graph, error) {
	start := time.Now()
	g, err := graph.Build(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	logging.Debug().
		Int("artists", g.Count(graph.Artist)).
		Int("tags", g.Count(graph.Tag)).
		Int("edges", g.NumEdges()).
		Dur("took", time.Since(start)).
		Msg("graph built")
	return g, nil
}
