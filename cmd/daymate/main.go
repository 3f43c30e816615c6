package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stellarlinkco/daymate/internal/config"
	"github.com/stellarlinkco/daymate/internal/export"
	"github.com/stellarlinkco/daymate/internal/gateway"
	"github.com/stellarlinkco/daymate/internal/knowledge"
	"github.com/stellarlinkco/daymate/internal/metrics"
	"github.com/stellarlinkco/daymate/internal/router"
	"github.com/stellarlinkco/daymate/internal/ui"
)

const apologyReply = "Sorry, something went wrong handling that. Please try again."

// ChatOptions for running chat with custom dependencies
type ChatOptions struct {
	// Message switches to single message mode.
	Message        string
	Config         *config.Config
	Logger         *zap.Logger
	BackendFactory BackendFactory
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
}

var rootCmd = &cobra.Command{
	Use:           "daymate",
	Short:         "daymate - your everyday assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal, or answer a single message with -m",
	RunE:  runChat,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve chat channels with reminders, daily tips and metrics",
	RunE:  runGateway,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnboard(cmd.OutOrStdout(), configPath())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daymate status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.OutOrStdout(), configPath())
	},
}

var (
	messageFlag string
	verboseFlag bool
	configFlag  string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.daymate/config.json)")
	rootCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	rootCmd.AddCommand(chatCmd, gatewayCmd, onboardCmd, statusCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	return runChatWithOptions(cmd.Context(), ChatOptions{Message: messageFlag})
}

// runChatWithOptions runs chat with injectable dependencies for testing
func runChatWithOptions(ctx context.Context, opts ChatOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = newLogger(cfg, true); err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	km, err := buildKnowledge(cfg, logger)
	if err != nil {
		return err
	}
	bridge, err := buildBridge(ctx, cfg, opts.BackendFactory, "cli", logger)
	if err != nil {
		return err
	}
	defer bridge.Close()
	if err := bridge.LastError(); err != nil && bridge.BackendName() != "none" {
		fmt.Fprintf(stderr, "Generation unavailable (%v); using built-in replies.\n", err)
	}

	r, err := newChatRouter(cfg, km, bridge, logger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	printer := ui.NewPrinter(stdout, ui.DetectPlain(stdout))

	// Single message mode
	if opts.Message != "" {
		printer.Reply(routeLine(ctx, r, opts.Message, logger).Text)
		return nil
	}

	printer.Banner(r.Greeting(), bridge.BackendName())
	return repl(ctx, cfg, r, printer, stdin, stdout, logger)
}

// repl reads stdin on its own goroutine so the loop can also react to
// signals and print reminders that come due while waiting for input.
func repl(ctx context.Context, cfg *config.Config, r *router.Router, printer *ui.Printer, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, stdin)

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	printer.Prompt()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(stdout)
			printer.Reply(r.Summary())
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(stdout)
				printer.Reply(r.Summary())
				return nil
			}
			reply := routeLine(ctx, r, line, logger)
			printer.Reply(reply.Text)
			if reply.Exit {
				return nil
			}
			printDue(r, printer)
			printer.Prompt()
		case <-ticker.C:
			if printDue(r, printer) {
				printer.Prompt()
			}
		}
	}
}

func readLines(ctx context.Context, stdin io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func printDue(r *router.Router, printer *ui.Printer) bool {
	due := r.DueReminders()
	for _, notice := range due {
		printer.Notice(notice)
	}
	return len(due) > 0
}

// routeLine answers one line; a panic anywhere below is logged and turned
// into an apology so one bad line never ends the session.
func routeLine(ctx context.Context, r *router.Router, line string, logger *zap.Logger) (reply router.Reply) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic while routing line", zap.Any("panic", p))
			reply = router.Reply{Text: apologyReply}
		}
	}()
	return r.Route(ctx, line)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	km, err := buildKnowledge(cfg, logger)
	if err != nil {
		return err
	}
	bridge, err := buildBridge(ctx, cfg, nil, "gateway", logger)
	if err != nil {
		return err
	}
	defer bridge.Close()

	gw, err := gateway.New(cfg, gateway.Options{
		Knowledge: km,
		Generator: bridge,
		Exporter:  export.NewWriter(cfg.Assistant.ExportDir),
		Metrics:   metrics.New(),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	return gw.Run(ctx)
}

func runOnboard(w io.Writer, cfgPath string) error {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfigTo(cfgPath, config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(w, "Created config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(w, "Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfigFrom(cfgPath)
	if err != nil {
		return err
	}
	facts := factsDir(cfg)
	for _, dir := range []string{cfg.Assistant.Workspace, facts, cfg.Assistant.ExportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create workspace: %w", err)
		}
	}
	writeIfNotExists(w, filepath.Join(facts, "00-sample.yaml"), sampleFactPack)

	fmt.Fprintf(w, "Workspace ready: %s\n", cfg.Assistant.Workspace)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Edit %s to pick a provider and set your API key\n", cfgPath)
	fmt.Fprintln(w, "  2. Or set DAYMATE_API_KEY / DAYMATE_PROVIDER")
	fmt.Fprintln(w, "  3. Run 'daymate chat -m \"what is 2 plus 3\"' to test")
	return nil
}

func runStatus(w io.Writer, cfgPath string) error {
	cfg, err := config.LoadConfigFrom(cfgPath)
	if err != nil {
		fmt.Fprintf(w, "Config: error (%v)\n", err)
		return nil
	}

	fmt.Fprintf(w, "Config: %s\n", cfgPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "Config problems:\n  %s\n", strings.ReplaceAll(err.Error(), "\n", "\n  "))
	}
	fmt.Fprintf(w, "Workspace: %s\n", cfg.Assistant.Workspace)
	fmt.Fprintf(w, "Provider: %s\n", cfg.ProviderType())
	fmt.Fprintf(w, "Model: %s\n", cfg.Provider.Model)
	fmt.Fprintf(w, "API Key: %s\n", maskKey(cfg.Provider.APIKey))
	fmt.Fprintf(w, "Timezone: %s\n", timezoneDisplay(cfg.Assistant.Timezone))
	fmt.Fprintf(w, "Telegram: enabled=%v allowFrom=%d\n", cfg.Channels.Telegram.Enabled, len(cfg.Channels.Telegram.AllowFrom))

	if _, err := os.Stat(cfg.Assistant.Workspace); err != nil {
		fmt.Fprintln(w, "Workspace: not found (run 'daymate onboard')")
		return nil
	}
	tables, err := knowledge.LoadFactPacks(factsDir(cfg))
	if err != nil {
		fmt.Fprintf(w, "Fact packs: error (%v)\n", err)
	} else {
		fmt.Fprintf(w, "Fact packs: %d tables\n", len(tables))
	}
	return nil
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) > 8:
		return key[:4] + "..." + key[len(key)-4:]
	default:
		return "set"
	}
}

func timezoneDisplay(tz string) string {
	if tz == "" {
		return "system (" + time.Local.String() + ")"
	}
	return tz
}

func writeIfNotExists(w io.Writer, path, content string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, []byte(content), 0644)
		fmt.Fprintf(w, "  Created: %s\n", path)
	}
}

const sampleFactPack = `# Extra facts for DayMate. Every *.yaml file in this directory is loaded
# after the built-in tables. A table answers when one of its triggers
# appears in the line (or always, without triggers) and a fact keyword
# matches.
tables:
  - name: pets
    triggers: [pet, dog, cat]
    facts:
      - keywords: [dog]
        answer: Dogs were domesticated over 15,000 years ago.
      - keywords: [cat]
        answer: Cats sleep 12 to 16 hours a day.
`
