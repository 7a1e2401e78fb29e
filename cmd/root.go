package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/JimiHenning/vanguard-ab-test/internal/config"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	flagSeed uint64

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgErr keeps the load failure so commands that need config can report it.
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "vanguard",
	Short: "Vanguard A/B test toolkit: clean client data and analyze the web funnel",
	Long: `Vanguard cleans client demographic and web-log tables and computes funnel metrics
(completion rate, time spent per step, backward-step error rate), Tukey outliers
and Cohen's h / d effect sizes for the Control vs Test experiment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.vanguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "seed for ratio-based filling (overrides config)")
}

func loadConfig() {
	cfg, cfgErr = nil, nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that don't need config still run
		cfgErr = err
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	if rootCmd.PersistentFlags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel))
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	if cfgErr != nil {
		return nil, fmt.Errorf("load config: %w", cfgErr)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return cfg, nil
}

// newLogger builds the text logger on w. --debug wins over the configured level.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func success(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, "⚠ Warning: "+format+"\n", args...)
}
