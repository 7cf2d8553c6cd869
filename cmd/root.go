package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PSCyberGeek/forge-ai/internal/auth"
	"github.com/PSCyberGeek/forge-ai/internal/config"
	"github.com/PSCyberGeek/forge-ai/internal/logging"
	"github.com/PSCyberGeek/forge-ai/internal/provider"
	"github.com/PSCyberGeek/forge-ai/internal/relay"
	"github.com/PSCyberGeek/forge-ai/internal/sandbox"
	"github.com/PSCyberGeek/forge-ai/internal/server"
	"github.com/PSCyberGeek/forge-ai/internal/store"
)

var (
	cfgFile  string
	addrFlag string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	rootCmd := &cobra.Command{
		Use:   "forge",
		Short: "Web-based AI coding assistant",
		Long:  "forge serves a browser-accessible AI coding assistant for Python and PowerShell.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/forge/config.yaml)")
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides config and PORT)")

	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if addrFlag != "" {
		cfg.Addr = addrFlag
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel})

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	p := buildProvider(cfg)
	if p == nil {
		log.Warn("no upstream API key configured; /api/chat will fail until one is set")
	}

	rl := relay.New(p, st, relay.SystemPrompt(cfg.SystemPrompt), cfg.Model)

	sb := sandbox.NewLocal(sandbox.Config{
		PythonBin:     cfg.Sandbox.PythonBin,
		PowerShellBin: cfg.Sandbox.PowerShellBin,
		Timeout:       time.Duration(cfg.Sandbox.TimeoutSeconds) * time.Second,
	})

	gate := auth.NewGate(cfg.Auth.Password, cfg.Auth.SessionKey, cfg.Auth.TOTPEnabled, cfg.Auth.TOTPSecret)

	h := server.NewHandler(gate, rl, sb, st, log)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.SetupRouter(h, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("forge listening", "addr", cfg.Addr, "store", cfg.Store.Backend, "totp", cfg.Auth.TOTPEnabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildProvider returns the configured provider, or nil when no API key is
// set. The relay then reports NotConfigured per request instead of refusing
// to start, so health checks keep working.
func buildProvider(cfg *config.Config) provider.Provider {
	pc := cfg.GetProviderConfig(cfg.Provider)
	if pc.APIKey == "" {
		return nil
	}

	// Model priority: env/flag override > per-provider config.
	model := cfg.Model
	if model == "" {
		model = pc.Model
	}

	switch cfg.Provider {
	case "openai":
		return provider.NewOpenAIProvider(pc.APIKey, pc.BaseURL, model)
	default:
		return provider.NewAnthropicProvider(pc.APIKey, model)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "json":
		return store.NewFileStore(cfg.Store.DataDir)
	default:
		return store.NewSQLiteStore(filepath.Join(cfg.Store.DataDir, "forge.db"))
	}
}
