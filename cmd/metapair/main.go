package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schaermu/metapair/internal/check"
	"github.com/schaermu/metapair/internal/config"
	"github.com/schaermu/metapair/internal/git"
	"github.com/spf13/cobra"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	assetRoot string
	logLevel  string
	logFormat string
	noColor   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "metapair [workdir]",
	Short: "Reject commits that break asset/descriptor pairing",
	Long: `metapair verifies that every asset under the asset root has its descriptor
(e.g. Foo.png and Foo.png.meta) and that every descriptor has its asset.

It checks both the files recorded in HEAD and the changes staged for the next
commit, including directories, additions, deletions and renames. Install it as
a git pre-commit hook: it exits non-zero and lists every violation when the
commit would break the pairing.

If workdir is given and is a directory, the check runs as if started there.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "metapair %s\n", version)
		_, _ = fmt.Fprintf(out, "  commit: %s\n", commit)
		_, _ = fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultFileName+" at the repository root)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	// Check flags
	rootCmd.Flags().StringVar(&assetRoot, "asset-root", "", "asset root relative to the repository (overrides assets.root)")

	rootCmd.AddCommand(versionCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	// Diagnostics go to stderr, stdout carries only violations
	logger := setupLogger(cmd.ErrOrStderr())

	workDir := resolveWorkDir(args, logger)

	cfg, err := loadConfig(ctx, logger, workDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	gitClient := git.NewShellClient(cfg.Git.Binary, workDir)
	engine := check.NewEngine(cfg, gitClient, logger)

	verdict, err := engine.Run(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		return err
	}

	if err := check.NewReporter(cmd.OutOrStdout(), !noColor).Print(verdict); err != nil {
		return err
	}
	if !verdict.OK() {
		return fmt.Errorf("commit rejected: %d pairing violation(s)", len(verdict.Violations()))
	}
	return nil
}

func setupLogger(w io.Writer) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// resolveWorkDir returns the directory git should run in. An argument that
// is not an existing directory is ignored and the process working directory
// is used instead, signalled by an empty result.
func resolveWorkDir(args []string, logger *slog.Logger) string {
	if len(args) == 0 {
		return ""
	}

	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		logger.Debug("ignoring working directory argument", "path", args[0], "error", err)
		return ""
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		logger.Debug("ignoring working directory argument", "path", args[0], "error", err)
		return ""
	}
	return abs
}

func loadConfig(ctx context.Context, logger *slog.Logger, workDir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if cfgFile != "" {
		logger.Info("loading configuration", "path", cfgFile)
		cfg, err = config.Load(cfgFile)
	} else {
		// Look for the optional config at the repository root
		base := workDir
		if top, topErr := git.NewShellClient("", workDir).Toplevel(ctx); topErr == nil {
			base = top
		}
		path := filepath.Join(base, config.DefaultFileName)
		logger.Info("loading optional configuration", "path", path)
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return nil, err
	}

	if assetRoot != "" {
		cfg.Assets.Root = assetRoot
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --asset-root: %w", err)
		}
	}

	logger.Debug("configuration loaded",
		"root", cfg.Assets.Root,
		"descriptor_suffix", cfg.Assets.DescriptorSuffix,
		"ignore", cfg.Assets.Ignore,
		"git", cfg.Git.Binary)

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
