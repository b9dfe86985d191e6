package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unisupport/unisupport/internal/app"
	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/config"
	"github.com/unisupport/unisupport/internal/history"
	"github.com/unisupport/unisupport/internal/kvredis"
	"github.com/unisupport/unisupport/internal/llm"
	"github.com/unisupport/unisupport/internal/recommend"
	"github.com/unisupport/unisupport/internal/screen"
	"github.com/unisupport/unisupport/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	userID := userFlag(cmd)
	profile, ok, err := auth.LoadProfile(ctx, st, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		profile = auth.Profile{UserID: userID}
	}

	deps := &screen.Deps{
		Backend:  st,
		Profile:  profile,
		Profiles: st,
	}

	if gen := newGenerator(ctx, cfg, st); gen != nil {
		kv, closeKV, err := openKV(ctx, cfg, st)
		if err != nil {
			return err
		}
		defer closeKV()
		deps.Recommendations = userCache(kv, gen, userID)
	}

	return app.Run(deps)
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}
	return cfg, nil
}

func userFlag(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("user")
	return u
}

// openStore opens the database and installs the built-in question bank
// when it holds no categories yet.
func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	path := cfg.DBPath
	if path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		path = p
	} else if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create DB directory: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cats, err := st.ListCategories(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) == 0 {
		seed, err := store.DefaultSeed()
		if err == nil {
			_, err = st.Import(ctx, seed)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not install the built-in questions: %v\n", err)
		}
	}
	return st, nil
}

// newGenerator builds the recommendation generator, or returns nil when no
// LLM provider is configured.
func newGenerator(ctx context.Context, cfg config.Config, st *store.Store) history.Generator {
	provider, err := llm.NewProvider(ctx, cfg.LLM, st)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Career suggestions will be unavailable.")
		return nil
	}
	return recommend.NewService(provider, recommend.DefaultConfig())
}

// openKV returns the Redis KV when configured and the store otherwise.
func openKV(ctx context.Context, cfg config.Config, st *store.Store) (history.KV, func(), error) {
	if !cfg.Redis.Enabled() {
		return st, func() {}, nil
	}
	kv, err := kvredis.Open(ctx, kvredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "unisupport:",
	})
	if err != nil {
		return nil, nil, err
	}
	return kv, func() { kv.Close() }, nil
}

func userCache(kv history.KV, gen history.Generator, userID string) *history.Cache {
	return history.NewCache(history.Prefixed(kv, "user:"+userID+":"), gen)
}
