package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typetrack/internal/app"
	"github.com/verte-zerg/typetrack/internal/config"
	"github.com/verte-zerg/typetrack/internal/generator"
	"github.com/verte-zerg/typetrack/internal/historyui"
	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/stats"
	"github.com/verte-zerg/typetrack/internal/tui"
	"github.com/verte-zerg/typetrack/internal/wordlist"
)

const defaultCurveWindow = 5

var (
	practiceUser        string
	practiceDuration    int
	practiceWords       int
	practiceCaps        float64
	practicePunct       float64
	practicePunctSet    string
	practiceWordList    string
	practiceFocusErrors bool
	practiceFocusTop    int
	practiceFocusFactor float64
	practiceFocusWindow int
	practiceSamples     bool

	historyUser        string
	historyLast        int
	historyCurveWindow int
	historyPlain       bool
)

func newPracticeCmd() *cobra.Command {
	defaults := config.Defaults().Practice
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Run a timed typing test in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runPracticeCmd,
	}
	cmd.Flags().StringVar(&practiceUser, "user", "", "username the results are saved for")
	cmd.Flags().IntVar(&practiceDuration, "duration", defaults.Duration, "test length in seconds (15 or 30)")
	cmd.Flags().IntVar(&practiceWords, "words", defaults.Words, "words per generated passage")
	cmd.Flags().Float64Var(&practiceCaps, "caps", defaults.CapsPct, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&practicePunct, "punct", defaults.PunctPct, "punctuation probability per word (0-1)")
	cmd.Flags().StringVar(&practicePunctSet, "punct-set", defaults.PunctSet, "punctuation set")
	cmd.Flags().StringVar(&practiceWordList, "wordlist", defaults.WordList, "custom word list (one word per line)")
	cmd.Flags().BoolVar(&practiceFocusErrors, "focus-errors", defaults.FocusErrors, "bias passages toward frequently missed words")
	cmd.Flags().IntVar(&practiceFocusTop, "focus-top", defaults.FocusTop, "number of missed words to focus on")
	cmd.Flags().Float64Var(&practiceFocusFactor, "focus-factor", defaults.FocusFactor, "extra weight for focus words")
	cmd.Flags().IntVar(&practiceFocusWindow, "focus-window", defaults.FocusWindow, "recent sessions used to pick focus words")
	cmd.Flags().BoolVar(&practiceSamples, "samples", false, "use the fixed reference passages instead of generated text")
	return cmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	p := cfg.Practice
	applyConfig(cmd, "user", &practiceUser, p.User)
	applyConfig(cmd, "duration", &practiceDuration, p.Duration)
	applyConfig(cmd, "words", &practiceWords, p.Words)
	applyConfig(cmd, "caps", &practiceCaps, p.CapsPct)
	applyConfig(cmd, "punct", &practicePunct, p.PunctPct)
	applyConfig(cmd, "punct-set", &practicePunctSet, p.PunctSet)
	applyConfig(cmd, "wordlist", &practiceWordList, p.WordList)
	applyConfig(cmd, "focus-errors", &practiceFocusErrors, p.FocusErrors)
	applyConfig(cmd, "focus-top", &practiceFocusTop, p.FocusTop)
	applyConfig(cmd, "focus-factor", &practiceFocusFactor, p.FocusFactor)
	applyConfig(cmd, "focus-window", &practiceFocusWindow, p.FocusWindow)

	pc := model.PracticeConfig{
		Username:     practiceUser,
		Duration:     practiceDuration,
		Words:        practiceWords,
		CapsPct:      practiceCaps,
		PunctPct:     practicePunct,
		PunctSet:     practicePunctSet,
		WordListPath: practiceWordList,
		FocusErrors:  practiceFocusErrors,
		FocusFactor:  practiceFocusFactor,
		FocusWindow:  practiceFocusWindow,
	}
	if err := validatePractice(pc, practiceFocusTop); err != nil {
		return err
	}

	words, err := wordlist.LoadOrBuiltin(pc.WordListPath)
	if err != nil {
		return fmt.Errorf("failed to load word list: %w", err)
	}

	ctx := cmd.Context()
	services, err := openLocal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocal(services)

	user, err := lookupUser(ctx, services, pc.Username)
	if err != nil {
		return err
	}

	history, err := services.Sessions.Summary(ctx, user.ID, user.ID, 0)
	if err != nil {
		logErrf("failed to load session history: %v\n", err)
	}

	opts := generator.Options{
		Words:       pc.Words,
		CapsPct:     pc.CapsPct,
		PunctPct:    pc.PunctPct,
		PunctSet:    []rune(pc.PunctSet),
		FocusFactor: pc.FocusFactor,
	}
	if pc.FocusErrors {
		opts.Focus = focusWords(ctx, services, user.ID, pc.FocusWindow, practiceFocusTop)
		if len(opts.Focus) == 0 {
			logErrln("no missed words recorded yet; using normal generator")
		}
	}

	gen := generator.New()
	next := func() string {
		if practiceSamples {
			return gen.Sample(wordlist.Samples)
		}
		return gen.Passage(words, opts)
	}

	m := tui.NewModel(tui.Options{
		Duration:    pc.Duration,
		NextPassage: next,
		History:     history,
		Save: func(ctx context.Context, c model.Candidate) (model.Session, error) {
			return services.Sessions.Create(ctx, user.ID, c)
		},
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func focusWords(ctx context.Context, services *app.Services, userID string, window, top int) map[string]struct{} {
	sessions, err := services.Sessions.List(ctx, userID, userID, window)
	if err != nil {
		logErrf("failed to load missed words: %v\n", err)
		return nil
	}
	return stats.SelectFocusWords(stats.TopErrorWords(sessions, top), top)
}

func validatePractice(pc model.PracticeConfig, focusTop int) error {
	if pc.Duration != model.Duration15 && pc.Duration != model.Duration30 {
		return fmt.Errorf("--duration must be 15 or 30")
	}
	if pc.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if pc.CapsPct < 0 || pc.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if pc.PunctPct < 0 || pc.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if pc.PunctPct > 0 && pc.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	if focusTop < 0 {
		return fmt.Errorf("--focus-top must be >= 0")
	}
	if pc.FocusFactor < 0 {
		return fmt.Errorf("--focus-factor must be >= 0")
	}
	if pc.FocusWindow < 0 {
		return fmt.Errorf("--focus-window must be >= 0")
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past sessions and their analysis",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyUser, "user", "", "username")
	cmd.Flags().IntVar(&historyLast, "last", 0, "number of recent sessions (default 10, max 50)")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the WPM trend")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print tables instead of opening the dashboard")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	applyConfig(cmd, "user", &historyUser, cfg.Practice.User)
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	ctx := cmd.Context()
	services, err := openLocal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocal(services)

	user, err := lookupUser(ctx, services, historyUser)
	if err != nil {
		return err
	}
	hc := model.HistoryConfig{
		Username:    user.Username,
		Last:        historyLast,
		CurveWindow: historyCurveWindow,
	}

	if historyPlain {
		return printHistory(cmd, services, user.ID, hc)
	}
	m := historyui.NewModel(services.Sessions, user.ID, hc)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func printHistory(cmd *cobra.Command, services *app.Services, userID string, hc model.HistoryConfig) error {
	ctx := cmd.Context()
	sessions, err := services.Sessions.List(ctx, userID, userID, hc.Last)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	summary, err := services.Sessions.Summary(ctx, userID, userID, hc.Last)
	if err != nil {
		return fmt.Errorf("failed to summarize sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSessions(out, sessions); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return stats.RenderSummary(out, summary, hc.CurveWindow)
}
