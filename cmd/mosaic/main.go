package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mosaic/internal/catalog"
	"mosaic/internal/config"
	"mosaic/internal/share"
	"mosaic/internal/store"
	"mosaic/internal/vector/embed"
	"mosaic/internal/vector/index"
	"mosaic/internal/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "Mosaic - multimodal record store with shareable capability links",
	Long: `Mosaic stores text and image records, finds them by semantic
similarity over either modality, and shares individual files with
unauthenticated third parties through short-lived QR-code links.`,
	Version: version.Full(),
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Mosaic %s\n", version.Full())
		fmt.Printf("Go version: %s\n", version.GoVersion)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default mosaic.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

func initEnv() {
	// .env is optional; values there feed ${VAR} expansion in the config.
	_ = godotenv.Load()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	if _, err := os.Stat("mosaic.yaml"); err == nil {
		return config.Load("mosaic.yaml")
	}
	return config.Default(), nil
}

// app wires the configured stack together for one command invocation.
type app struct {
	cfg    *config.Config
	store  *store.Store
	share  *share.Service
	logger *log.Logger

	cat *catalog.Catalog
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "mosaic"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	var rows catalog.Storage
	if strings.EqualFold(cfg.Storage.DatabasePath, "memory") {
		rows = catalog.NewMemoryStorage()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		rows, err = catalog.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
	}

	cat, err := catalog.New(catalog.Config{
		Root:    cfg.Storage.Root,
		Storage: rows,
		IndexKind: map[string]string{
			"flat": index.KindFlat,
			"hnsw": index.KindHNSW,
		}[cfg.Index.Kind],
		HNSW: index.HNSWConfig{
			M:              cfg.Index.M,
			EfConstruction: cfg.Index.EfConstruction,
			EfSearch:       cfg.Index.EfSearch,
		},
		TextEmbedder: resolveEmbedder(cfg),
		EmbedDims:    cfg.Embedding.Dims,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Storage.Root, cat, logger)
	if err != nil {
		cat.Close()
		return nil, err
	}

	var tokenStore share.TokenStore
	if cfg.Share.Persistent {
		tokenStore, err = share.NewSQLiteStore(cfg.Share.DatabasePath)
		if err != nil {
			cat.Close()
			return nil, err
		}
	} else {
		tokenStore = share.NewMemoryStore()
	}

	svc := share.NewService(share.Config{
		Store:   tokenStore,
		Records: cat,
		BaseURL: cfg.Share.BaseURL,
		TTL:     cfg.Share.TokenTTL.Std(),
	})

	return &app{cfg: cfg, store: st, share: svc, logger: logger, cat: cat}, nil
}

func (a *app) Close() {
	if err := a.share.Close(); err != nil {
		a.logger.Warn("closing token store", "err", err)
	}
	if err := a.cat.Close(); err != nil {
		a.logger.Warn("closing catalog", "err", err)
	}
}

func resolveEmbedder(cfg *config.Config) embed.Embedder {
	switch cfg.Embedding.Provider {
	case "tfidf":
		return embed.NewTFIDF(cfg.Embedding.Dims)
	case "ollama":
		o := cfg.Embedding.Ollama
		return embed.NewOllama(o.Host, o.Model, o.Dims)
	default:
		return embed.NewHashing(cfg.Embedding.Dims)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
