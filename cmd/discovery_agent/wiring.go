package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/config"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/engine"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/llm"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/prompting"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/store"
)

// sharedFlags holds the flag values common to every subcommand that needs a
// wired engine.
type sharedFlags struct {
	configPath  string
	provider    string
	model       string
	sessionDir  string
	databaseURL string
	maxAttempts int
	timeoutSecs int
	verbose     bool
}

func (f *sharedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to JSON config file")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Model provider (gemini or scripted)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name")
	cmd.Flags().StringVar(&f.sessionDir, "session-dir", "", "Directory for file-backed session storage")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", "", "Postgres URL for session storage (defaults to DATABASE_URL)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "Total model-call attempts per turn, including the first")
	cmd.Flags().IntVar(&f.timeoutSecs, "timeout", 0, "Per-call model timeout in seconds")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Print turn diagnostics")
}

// loadMergedConfig resolves the effective configuration: config file values
// fill anything the flags left unset, then defaults fill the rest.
func loadMergedConfig(f *sharedFlags) (config.Config, error) {
	cfg := config.Config{
		Provider:       f.provider,
		Model:          f.model,
		SessionDir:     f.sessionDir,
		DatabaseURL:    f.databaseURL,
		MaxAttempts:    f.maxAttempts,
		TimeoutSeconds: f.timeoutSecs,
		Verbose:        f.verbose,
	}

	if f.configPath != "" {
		fileCfg, err := config.LoadConfig(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}

	if cfg.DatabaseURL == "" && cfg.SessionDir == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		Provider:       string(llm.ProviderGemini),
		Model:          llm.DefaultConfig().Model,
		MaxAttempts:    llm.DefaultRetryPolicy().MaxAttempts,
		TimeoutSeconds: int(llm.DefaultGenerateOptions().Timeout / time.Second),
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore picks the persistence backend from the configuration: Postgres
// when a database URL is set, the file store when a session directory is set,
// and the in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return pg, pg.Close, nil
	case cfg.SessionDir != "":
		fs, err := store.NewFile(cfg.SessionDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session directory: %w", err)
		}
		return fs, func() {}, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

// buildEngine wires store, model client, and engine from the effective
// configuration. The returned cleanup closes the client and the store.
func buildEngine(ctx context.Context, cfg config.Config) (*engine.Engine, func(), error) {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Provider != string(llm.ProviderScripted) && apiKey == "" {
		closeStore()
		return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := llm.NewClient(ctx, &llm.Config{
		Provider: llm.Provider(cfg.Provider),
		Model:    cfg.Model,
	}, apiKey)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	policy := llm.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	retrying := llm.WithRetries(client, policy)

	genOpts := llm.DefaultGenerateOptions()
	if cfg.TimeoutSeconds > 0 {
		genOpts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	builderOpts := prompting.Options{}
	if cfg.PromptCharBudget > 0 {
		builderOpts.CharBudget = cfg.PromptCharBudget
	}
	if cfg.RecentRawAnswers > 0 {
		builderOpts.RecentRaw = cfg.RecentRawAnswers
	}

	eng := engine.New(st, retrying,
		engine.WithGenerateOptions(genOpts),
		engine.WithBuilder(prompting.NewBuilder(builderOpts)),
	)

	cleanup := func() {
		_ = retrying.Close()
		closeStore()
	}
	return eng, cleanup, nil
}
