// Package main provides the CLI entrypoint for typetrack.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typetrack/internal/app"
	"github.com/verte-zerg/typetrack/internal/auth"
	"github.com/verte-zerg/typetrack/internal/config"
	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/observability"
	"github.com/verte-zerg/typetrack/internal/stats"
	"github.com/verte-zerg/typetrack/internal/store"
)

var (
	configPath string
	envPath    string

	registerUsername string
	registerEmail    string

	analyzeUser string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typetrack",
		Short:         "Typing speed tests with session history and analysis",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the TOML config")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", config.DefaultEnvPath(), "path to a .env file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newPracticeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func loadConfig(serving bool) (config.Config, error) {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(serving); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openLocal opens the services for a terminal command. Tokens are never
// handed out locally, so a missing secret is replaced by a throwaway one.
func openLocal(ctx context.Context, cfg config.Config) (*app.Services, error) {
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = uuid.NewString()
	}
	logger := observability.NewLogger("error", cfg.Log.Format)
	services, err := app.OpenServices(ctx, cfg, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return services, nil
}

func closeLocal(services *app.Services) {
	if err := services.Close(); err != nil {
		logErrf("failed to close store: %v\n", err)
	}
}

func lookupUser(ctx context.Context, services *app.Services, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, fmt.Errorf("--user is required (or set practice.user in the config)")
	}
	user, err := services.Store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, fmt.Errorf("unknown user %q; create it with: typetrack register", username)
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", "err", err)
		return err
	}
	if err := application.Run(ctx); err != nil {
		logger.Error("app stopped with error", "err", err)
		return err
	}
	return nil
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user in the configured store",
		Args:  cobra.NoArgs,
		RunE:  runRegisterCmd,
	}
	cmd.Flags().StringVar(&registerUsername, "username", "", "username (3-30 characters)")
	cmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	return cmd
}

func runRegisterCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	services, err := openLocal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocal(services)

	user, _, err := services.Auth.Register(ctx, auth.Registration{
		Username: registerUsername,
		Email:    registerEmail,
		Password: password,
	})
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			return fmt.Errorf("invalid %s: %s", verr.Field, verr.Reason)
		case errors.Is(err, auth.ErrUserExists):
			return fmt.Errorf("username or email already registered")
		}
		return fmt.Errorf("failed to register: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", user.Username, user.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// readPassword reads a password without echo from a terminal, or a single
// line from any other reader.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := fmt.Fprint(prompt, "Password: "); err != nil {
			return "", err
		}
		raw, err := term.ReadPassword(int(f.Fd()))
		if _, perr := fmt.Fprintln(prompt); perr != nil {
			logErrln(perr)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <session-id>",
		Short: "Print the analysis of one session",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().StringVar(&analyzeUser, "user", "", "owner username")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	applyConfig(cmd, "user", &analyzeUser, cfg.Practice.User)

	ctx := cmd.Context()
	services, err := openLocal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocal(services)

	user, err := lookupUser(ctx, services, analyzeUser)
	if err != nil {
		return err
	}
	analysis, err := services.Sessions.Analysis(ctx, user.ID, args[0])
	if err != nil {
		return fmt.Errorf("failed to analyze session: %w", err)
	}
	return stats.RenderAnalysis(cmd.OutOrStdout(), analysis)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	if err := ensureConfigFile(configPath); err != nil {
		return err
	}
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyConfig copies a resolved config value into a flag target unless the
// flag was set explicitly.
func applyConfig[T any](cmd *cobra.Command, name string, target *T, value T) {
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
